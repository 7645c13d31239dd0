// Package matcher decides whether a record satisfies a query, and how well.
// It is pure: no I/O, total over any record/query pair.
package matcher

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/haystackfs/haystack/pkg/types"
)

// Extension fallbacks for category filters on records whose platform never
// reported a MIME type.
var (
	imageExts = map[string]bool{"jpg": true, "jpeg": true, "gif": true, "png": true}
	audioExts = map[string]bool{"wav": true, "mp3": true}
)

// Matches reports whether rec satisfies every filter q sets. Text filters
// (filename, content, custom filetype) pass when the fuzzy partial-ratio
// similarity reaches thresh. A query with no filters matches every record.
// Evaluation short-circuits on the first failing filter.
func Matches(rec *types.Record, q *types.Query, thresh int) bool {
	if q.Filename != "" && partialRatio(q.Filename, rec.Filename) < thresh {
		return false
	}
	if q.Content != "" && partialRatio(q.Content, rec.MessageContent) < thresh {
		return false
	}
	if q.CustomFiletype != "" && partialRatio(q.CustomFiletype, rec.Filetype) < thresh {
		return false
	}
	if q.Filetype != "" && !filetypeMatches(rec, q.Filetype) {
		return false
	}
	if !q.After.IsZero() && rec.CreatedAt.Before(q.After) {
		return false
	}
	if !q.Before.IsZero() && rec.CreatedAt.After(q.Before) {
		return false
	}
	if q.Author != 0 && rec.AuthorID != q.Author {
		return false
	}
	if q.Channel != 0 && rec.ChannelID != q.Channel {
		return false
	}
	return true
}

// Score returns the similarity used for ranking: plain ratio of the record's
// filename against the query's filename filter, else of the message content
// against the content filter, else 0 (crawl order wins).
func Score(rec *types.Record, q *types.Query) int {
	if q.Filename != "" {
		return fuzzy.Ratio(strings.ToLower(q.Filename), strings.ToLower(rec.Filename))
	}
	if q.Content != "" {
		return fuzzy.Ratio(strings.ToLower(q.Content), strings.ToLower(rec.MessageContent))
	}
	return 0
}

func partialRatio(query, value string) int {
	return fuzzy.PartialRatio(strings.ToLower(query), strings.ToLower(value))
}

// filetypeMatches handles the filetype filter's two forms: a category token
// ("image", "audio") or a concrete MIME type / extension. Records without a
// reported MIME type are compared by extension, with the query value reduced
// to its subtype so "image/png" still matches a bare "png".
func filetypeMatches(rec *types.Record, want string) bool {
	want = strings.ToLower(want)
	effective := strings.ToLower(rec.ContentType)
	ext := canonicalExt(strings.ToLower(rec.Filetype))

	if effective == "" {
		if i := strings.IndexByte(want, '/'); i >= 0 {
			want = want[i+1:]
		}
		effective = ext
	}
	want = canonicalExt(want)

	switch want {
	case "image":
		return strings.Contains(effective, "image") || imageExts[ext]
	case "audio":
		return strings.Contains(effective, "audio") || audioExts[ext]
	}
	return want == effective
}

// canonicalExt folds the jpeg/jpg spelling split.
func canonicalExt(s string) string {
	if s == "jpeg" {
		return "jpg"
	}
	return s
}
