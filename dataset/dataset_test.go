package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

const sampleCSV = `id,content,cluster_label,extra
1,太贵了,价格,x
2,送得真慢,时效,x
3,,价格,x
4,骑手态度好,服务,x
5,老用户反而更贵,杀熟,
6,又涨价了,价格,x
7,"quoted, with comma",其他,x
8,no label,,x
`

func TestParse(t *testing.T) {
	comments, err := Parse([]byte(sampleCSV))
	require.NoError(t, err)

	require.Len(t, comments, 6)
	assert.Equal(t, Comment{Content: "太贵了", Label: "价格"}, comments[0])
	assert.Equal(t, Comment{Content: "quoted, with comma", Label: "其他"}, comments[5])
}

func TestParse_BOMAndCustomColumns(t *testing.T) {
	data := "\ufefftext,topic\nhello,a\n"
	comments, err := Parse([]byte(data), func(o *Options) {
		o.ContentColumn = "text"
		o.LabelColumn = "topic"
	})
	require.NoError(t, err)
	assert.Equal(t, []Comment{{Content: "hello", Label: "a"}}, comments)
}

func TestParse_MissingColumn(t *testing.T) {
	_, err := Parse([]byte("text,label\nhi,a\n"))
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "text")

	_, err = Parse(nil)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestLoad_GBKFallback(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("content,cluster_label\n太贵了,价格\n"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "gbk.csv")
	require.NoError(t, os.WriteFile(path, gbk, 0o600))

	comments, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []Comment{{Content: "太贵了", Label: "价格"}}, comments)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestSample(t *testing.T) {
	var comments []Comment
	for i := range 10 {
		comments = append(comments, Comment{Content: "b" + string(rune('0'+i)), Label: "b"})
	}
	comments = append(comments,
		Comment{Content: "a0", Label: "a"},
		Comment{Content: "a1", Label: "a"},
		Comment{Content: "c0", Label: "c"},
	)

	got := Sample(comments, 3, DefaultSeed)
	require.Len(t, got, 6)

	assert.Equal(t, []string{"a", "b", "c"}, Labels(got))
	assert.ElementsMatch(t, []string{"a0", "a1"}, Texts(got[:2]))
	for _, c := range got[2:5] {
		assert.Equal(t, "b", c.Label)
	}
	assert.Equal(t, "c0", got[5].Content)

	// Same seed, same draw.
	assert.Equal(t, got, Sample(comments, 3, DefaultSeed))
	// Input untouched.
	assert.Equal(t, "b0", comments[0].Content)
}

func TestSample_Edges(t *testing.T) {
	assert.Empty(t, Sample(nil, 5, DefaultSeed))
	assert.Empty(t, Sample([]Comment{{Content: "x", Label: "a"}}, 0, DefaultSeed))
}

func TestTexts(t *testing.T) {
	assert.Equal(t, []string{"x", "y"}, Texts([]Comment{{Content: "x"}, {Content: "y"}}))
	assert.Empty(t, Texts(nil))
}
