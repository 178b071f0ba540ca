package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/handiism/releasedash/internal/model"
)

// FlexString decodes a JSON string or number into a string.
type FlexString string

// UnmarshalJSON accepts "123", 123 and null.
func (fs *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*fs = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*fs = FlexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unable to parse id: %s", data)
	}
	*fs = FlexString(n.String())
	return nil
}

// StringList decodes either a JSON array of strings or a single string.
type StringList []string

// UnmarshalJSON accepts ["a","b"], "a" and null.
func (sl *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*sl = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s = strings.TrimSpace(s); s != "" {
			*sl = StringList{s}
		} else {
			*sl = nil
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	out := make(StringList, 0, len(list))
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*sl = out
	return nil
}

// JSONRelease represents one entry of a label feed.
type JSONRelease struct {
	ID                 FlexString `json:"Id"`
	Name               string     `json:"Name"`
	Artist             StringList `json:"Artist"`
	Genre              StringList `json:"genre"`
	Dates              string     `json:"Dates"`
	Label              string     `json:"Label"`
	Cover              string     `json:"Cover"`
	CoverURL           string     `json:"CoverUrl"`
	RadioDownloadLinks StringList `json:"RadioDownloadLinks"`
}

// ToRelease converts the feed entry to a model.Release tagged with its source.
func (jr *JSONRelease) ToRelease(source string) *model.Release {
	cover := jr.Cover
	if cover == "" {
		cover = jr.CoverURL
	}

	r := &model.Release{
		ID:          string(jr.ID),
		Title:       strings.TrimSpace(jr.Name),
		Artists:     []string(jr.Artist),
		Genres:      model.SplitGenres(jr.Genre...),
		ReleaseDate: model.ParseReleaseDate(jr.Dates),
		Label:       strings.TrimSpace(jr.Label),
		CoverURL:    strings.TrimSpace(cover),
	}
	r.AddDownloadLinks(jr.RadioDownloadLinks...)
	if source != "" {
		r.Sources = []string{source}
	}
	return r
}

// JSONLinks is one entry of the download-links endpoint.
type JSONLinks struct {
	ID                 FlexString `json:"Id"`
	RadioDownloadLinks StringList `json:"RadioDownloadLinks"`
}
