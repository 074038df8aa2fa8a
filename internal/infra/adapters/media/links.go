package media

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	youtubeRe = regexp.MustCompile(`(?i)^https?://(?:www\.|m\.|music\.)?(?:youtube\.com/(?:watch\?\S*v=|shorts/|embed/|live/)|youtu\.be/)[\w-]{6,}`)
	tiktokRe  = regexp.MustCompile(`(?i)^https?://(?:www\.|vm\.|vt\.|m\.)?tiktok\.com/\S+`)
	videoIDRe = regexp.MustCompile(`^[\w-]{6,}$`)
)

// IsYouTubeLink reports whether s is a single YouTube video link.
func IsYouTubeLink(s string) bool { return youtubeRe.MatchString(strings.TrimSpace(s)) }

// IsTikTokLink reports whether s is a TikTok link.
func IsTikTokLink(s string) bool { return tiktokRe.MatchString(strings.TrimSpace(s)) }

// YouTubeVideoID extracts the video id from the common YouTube link shapes.
func YouTubeVideoID(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	var id string
	switch {
	case host == "youtu.be":
		id = strings.Trim(u.Path, "/")
	case strings.HasSuffix(host, "youtube.com"):
		if v := u.Query().Get("v"); v != "" {
			id = v
			break
		}
		segs := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(segs) == 2 {
			switch segs[0] {
			case "shorts", "embed", "live":
				id = segs[1]
			}
		}
	}
	if !videoIDRe.MatchString(id) {
		return ""
	}
	return id
}

// YouTubeThumbnail returns the high quality preview image for link, or "".
func YouTubeThumbnail(link string) string {
	id := YouTubeVideoID(link)
	if id == "" {
		return ""
	}
	return "https://img.youtube.com/vi/" + id + "/hqdefault.jpg"
}
