package video

import (
	"path/filepath"
	"strconv"
	"strings"
)

// startTag marks the offset of a partial recording within the full VOD
const startTag = "st="

// VodName is the information carried by a VOD file name such as
// "[2-5-24][st=10443]2054414193.mp4"
type VodName struct {
	// Stem is the file name without extension
	Stem string

	// ID is the external VOD id: the text after the last ']'
	ID string

	// StartOffset is the [st=N] value in seconds, 0 when absent
	StartOffset int

	// Tags holds the remaining bracket tags in order, e.g. "2-5-24"
	Tags []string
}

// ParseVodName extracts the tags and VOD id from a file name
func ParseVodName(fileName string) VodName {
	base := filepath.Base(fileName)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	name := VodName{Stem: stem, ID: stem}
	if i := strings.LastIndex(stem, "]"); i >= 0 {
		name.ID = stem[i+1:]
	}

	rest := stem
	for {
		open := strings.Index(rest, "[")
		if open < 0 {
			break
		}
		end := strings.Index(rest[open:], "]")
		if end < 0 {
			break
		}
		tag := rest[open+1 : open+end]
		rest = rest[open+end+1:]

		if v, ok := strings.CutPrefix(tag, startTag); ok {
			if n, err := strconv.Atoi(v); err == nil {
				name.StartOffset = n
			}
			continue
		}
		name.Tags = append(name.Tags, tag)
	}

	return name
}
