package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// ErrMissingColumn is returned when a required column is absent from the header.
var ErrMissingColumn = errors.New("missing required column")

// DefaultSeed makes sampling reproducible across runs.
const DefaultSeed uint64 = 42

// Comment is one labelled row of the source dataset.
type Comment struct {
	Content string `json:"content"`
	Label   string `json:"cluster_label"`
}

// Options configures Load.
type Options struct {
	// ContentColumn names the column holding the comment text.
	ContentColumn string
	// LabelColumn names the column holding the cluster label.
	LabelColumn string
}

// Load reads a CSV file with a header row. Bytes that are not valid UTF-8
// are decoded as GBK.
func Load(path string, optFns ...func(o *Options)) ([]Comment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return Parse(data, optFns...)
}

// Parse is Load for an in-memory file.
func Parse(data []byte, optFns ...func(o *Options)) ([]Comment, error) {
	opts := Options{
		ContentColumn: "content",
		LabelColumn:   "cluster_label",
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	text, err := decode(data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	contentIdx := slices.Index(header, opts.ContentColumn)
	labelIdx := slices.Index(header, opts.LabelColumn)
	if contentIdx < 0 || labelIdx < 0 {
		return nil, fmt.Errorf("%w: need [%s %s], have %v",
			ErrMissingColumn, opts.ContentColumn, opts.LabelColumn, header)
	}

	var comments []Comment
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		if contentIdx >= len(rec) || labelIdx >= len(rec) {
			continue
		}
		c := Comment{
			Content: strings.TrimSpace(rec[contentIdx]),
			Label:   strings.TrimSpace(rec[labelIdx]),
		}
		if c.Content == "" || c.Label == "" {
			continue
		}
		comments = append(comments, c)
	}

	return comments, nil
}

func decode(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		return data, nil
	}
	out, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decoding GBK: %w", err)
	}
	return out, nil
}

// Sample draws up to perClass comments from every label group using a
// seeded shuffle, then orders the result by label so comments on the same
// topic arrive in consecutive blocks. The input is not modified.
func Sample(comments []Comment, perClass int, seed uint64) []Comment {
	if perClass <= 0 || len(comments) == 0 {
		return []Comment{}
	}

	groups := make(map[string][]Comment)
	var labels []string
	for _, c := range comments {
		if _, ok := groups[c.Label]; !ok {
			labels = append(labels, c.Label)
		}
		groups[c.Label] = append(groups[c.Label], c)
	}
	slices.Sort(labels)

	rng := rand.New(rand.NewPCG(seed, seed))

	out := make([]Comment, 0, len(comments))
	for _, label := range labels {
		group := slices.Clone(groups[label])
		rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		out = append(out, group[:min(perClass, len(group))]...)
	}

	return out
}

// Texts returns the comment contents in order.
func Texts(comments []Comment) []string {
	out := make([]string, len(comments))
	for i, c := range comments {
		out[i] = c.Content
	}
	return out
}

// Labels returns the distinct labels in first-seen order.
func Labels(comments []Comment) []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range comments {
		if !seen[c.Label] {
			seen[c.Label] = true
			out = append(out, c.Label)
		}
	}
	return out
}
