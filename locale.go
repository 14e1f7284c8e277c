package isopage

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/vango-dev/isopage/internal/errors"
)

const langParam = "lang"

func parseLanguages(codes []string) ([]language.Tag, error) {
	tags := make([]language.Tag, 0, len(codes))
	for _, code := range codes {
		tag, err := language.Parse(code)
		if err != nil {
			return nil, errors.New(errors.CodeConfigInvalid).Wrap(err).WithDetailf("language %q", code)
		}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		tags = append(tags, language.English)
	}
	return tags, nil
}

func prefixedPattern(pattern string) string {
	if pattern == "/" {
		return "/{" + langParam + "}"
	}
	return "/{" + langParam + "}" + pattern
}

// negotiate picks the page language. A URL prefix must name a supported
// language exactly; otherwise Accept-Language is matched against the
// supported list, falling back to the first one.
func (a *App) negotiate(r *http.Request) (lang, partPath string, ok bool) {
	if code := chi.URLParam(r, langParam); code != "" {
		tag, err := language.Parse(code)
		if err != nil {
			return "", "", false
		}
		for _, supported := range a.languages {
			if supported.String() == tag.String() {
				return supported.String(), "/" + supported.String(), true
			}
		}
		return "", "", false
	}

	tags, _, _ := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	_, index, _ := a.matcher.Match(tags...)
	if index < 0 || index >= len(a.languages) {
		index = 0
	}
	return a.languages[index].String(), "", true
}
