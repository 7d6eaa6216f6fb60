package transport

import (
	"encoding/base64"
	"unicode/utf8"
)

// wireRequest is the JSON shape both helper modes accept. Bodies that
// are not valid UTF-8 travel base64-encoded; everything else goes as a
// plain string so captures stay readable.
type wireRequest struct {
	ID          string            `json:"id,omitempty"`
	Method      string            `json:"method"`
	URL         string            `json:"url"`
	Headers     map[string]string `json:"headers,omitempty"`
	Cookies     map[string]string `json:"cookies,omitempty"`
	Body        string            `json:"body,omitempty"`
	BodyB64     string            `json:"body_b64,omitempty"`
	Impersonate string            `json:"impersonate,omitempty"`
}

// wireResponse is the helper's JSON answer, mirrored on stdout in
// one-shot mode and on /request in server mode.
type wireResponse struct {
	StatusCode int                 `json:"status_code"`
	Body       string              `json:"body,omitempty"`
	BodyB64    string              `json:"body_b64,omitempty"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Error      string              `json:"error,omitempty"`
}

func encodeWireBody(body []byte, req *wireRequest) {
	if len(body) == 0 {
		return
	}
	if utf8.Valid(body) {
		req.Body = string(body)
		return
	}
	req.BodyB64 = base64.StdEncoding.EncodeToString(body)
}

func decodeWireResponse(wr *wireResponse) *Response {
	if wr.Error != "" && wr.StatusCode <= 0 {
		return failure(wr.Error)
	}
	body := []byte(wr.Body)
	if wr.BodyB64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(wr.BodyB64)
		if err != nil {
			return failure("helper returned undecodable body: " + err.Error())
		}
		body = decoded
	}
	return &Response{
		StatusCode: wr.StatusCode,
		Body:       body,
		Headers:    normalizeHeaders(wr.Headers),
		Error:      wr.Error,
	}
}
