package whatsapp

// MediaType is the kind of attachment carried by a media message.
type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaAudio    MediaType = "audio"
	MediaDocument MediaType = "document"
	MediaSticker  MediaType = "sticker"
)

// Valid reports whether the Cloud API accepts this media type.
func (t MediaType) Valid() bool {
	switch t {
	case MediaImage, MediaVideo, MediaAudio, MediaDocument, MediaSticker:
		return true
	default:
		return false
	}
}

// MediaSource points at the attachment, either by public URL or by an id
// returned from the media upload endpoint. Only MediaLink and MediaID
// implement it, so a request can never carry both.
type MediaSource interface {
	apply(media map[string]any)
}

// MediaLink references media hosted at a public URL.
type MediaLink string

// MediaID references media previously uploaded to the Cloud API.
type MediaID string

func (l MediaLink) apply(media map[string]any) { media["link"] = string(l) }

func (id MediaID) apply(media map[string]any) { media["id"] = string(id) }
