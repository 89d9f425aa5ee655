package download

import (
	"bytes"
	"encoding/json"
)

// DownloadRequest is the body of POST /download.
type DownloadRequest struct {
	URL string `json:"url" validate:"required,tiktokurl"`
}

// ResolvedMedia is what the resolver hands back to the client. It is built
// once per request and never stored.
type ResolvedMedia struct {
	ID             string `json:"id,omitempty"`
	Title          string `json:"title"`
	Thumbnail      string `json:"thumbnail"`
	Author         string `json:"author,omitempty"`
	AuthorUsername string `json:"authorUsername,omitempty"`
	Description    string `json:"description,omitempty"`
	DownloadURL    string `json:"downloadUrl,omitempty"`
	NoWatermarkURL string `json:"noWatermarkUrl,omitempty"`
	MusicURL       string `json:"musicUrl,omitempty"`
}

// RelayRequest carries the query parameters of GET /download.
type RelayRequest struct {
	VideoURL string `validate:"required,url"`
	Filename string
}

// UpstreamMetadataResponse is the metadata API envelope. Code 0 means success.
type UpstreamMetadataResponse struct {
	Code int            `json:"code"`
	Msg  string         `json:"msg"`
	Data *UpstreamVideo `json:"data,omitempty"`
}

type UpstreamVideo struct {
	ID     FlexibleString  `json:"id"`
	Title  string          `json:"title"`
	Cover  string          `json:"cover"`
	Author *UpstreamAuthor `json:"author,omitempty"`
	Play   string          `json:"play"`
	WMPlay string          `json:"wmplay"`
	Music  string          `json:"music"`
}

type UpstreamAuthor struct {
	Nickname string `json:"nickname"`
	UniqueID string `json:"unique_id"`
}

// FlexibleString holds a field the metadata API has sent both as a JSON string
// and as a number. Any other JSON value decodes to "".
type FlexibleString string

func (s *FlexibleString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*s = ""

	switch {
	case len(b) == 0:
		return nil
	case b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexibleString(v)
	case b[0] == '-' || ('0' <= b[0] && b[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*s = FlexibleString(n.String())
	}
	return nil
}
