package utils

import (
	"net/http"
	"unicode/utf8"

	"github.com/animeverse-dev/animeverse/internal/errors"
)

type NodeTextValidator struct{}

func (e *NodeTextValidator) Text(text string) error {
	if utf8.RuneCountInString(text) > 10_000 {
		return &errors.ErrorWithStatusCode{Message: "Text is too long", StatusCode: http.StatusBadRequest}
	}
	return nil
}
