package progress

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCopyReportsMonotonicPercent(t *testing.T) {
	payload := strings.Repeat("x", 1000)
	var got []int
	var dst bytes.Buffer

	n, err := Copy(context.Background(), &dst, strings.NewReader(payload), int64(len(payload)), func(pct int) {
		got = append(got, pct)
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.NotEmpty(t, got)
	assert.Equal(t, 100, got[len(got)-1])
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i], got[i-1], "percent must strictly increase per report")
	}
}

func TestCopyUnknownTotalEmitsNothing(t *testing.T) {
	var got []int
	var dst bytes.Buffer
	_, err := Copy(context.Background(), &dst, strings.NewReader("data"), 0, func(pct int) {
		got = append(got, pct)
	})
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestCopyCancellationStopsTransfer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	// Cancel once the first chunk has moved; the next Read must fail.
	src := io.MultiReader(
		strings.NewReader(strings.Repeat("a", 10)),
		cancelReader{cancel: cancel},
		strings.NewReader(strings.Repeat("b", 1<<20)),
	)

	var dst bytes.Buffer
	_, err := Copy(ctx, &dst, src, 1<<21, Discard)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, dst.Len(), 1<<20)
}

type cancelReader struct {
	cancel context.CancelFunc
}

func (c cancelReader) Read(p []byte) (int, error) {
	c.cancel()
	return 0, io.EOF
}
