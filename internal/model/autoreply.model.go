package model

import "errors"

// AutoReply is a keyword rule. Inbound text containing the keyword
// (case-insensitive substring) triggers the response. Rules are created
// and deleted, never updated; duplicate keywords are allowed.
type AutoReply struct {
	ID       int64  `json:"id"`
	Keyword  string `json:"keyword"`
	Response string `json:"response"`
}

type AutoReplyCreateRequest struct {
	Keyword  string `json:"keyword"`
	Response string `json:"response"`
}

func (r AutoReplyCreateRequest) Validate() error {
	if r.Keyword == "" {
		return errors.New("keyword is required")
	}
	if r.Response == "" {
		return errors.New("response is required")
	}
	return nil
}
