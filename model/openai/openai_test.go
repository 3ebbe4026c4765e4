package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hupe1980/opinionsim/core"
	"github.com/hupe1980/opinionsim/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages_InstructionsLead(t *testing.T) {
	msgs := buildMessages(model.Request{
		Instructions: "persona",
		Contents:     []core.Content{core.NewUserContent("comment")},
	})

	require.Len(t, msgs, 2)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
}

func TestBuildParams_JSONMode(t *testing.T) {
	m := NewModel(func(o *Options) {
		o.Model = "deepseek-chat"
		o.APIKey = "test"
		o.BaseURL = "http://localhost:0"
	})

	params := m.buildParams(model.Request{JSONMode: true}, nil)
	assert.EqualValues(t, "deepseek-chat", params.Model)
	assert.NotNil(t, params.ResponseFormat.OfJSONObject)

	params = m.buildParams(model.Request{}, nil)
	assert.Nil(t, params.ResponseFormat.OfJSONObject)
}

func TestInfo(t *testing.T) {
	m := NewModel(func(o *Options) { o.APIKey = "test"; o.Model = "gpt-x" })
	assert.Equal(t, model.Info{Name: "gpt-x", Provider: "openai"}, m.Info())
}

func TestSend_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan model.Response)
	errCh := make(chan error, 1)

	assert.False(t, send(ctx, out, errCh, model.Response{ID: "x"}))
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

func TestGenerate_StreamingUnreadConsumerCancels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for i := 0; i < 64; i++ {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":0,\"model\":\"m\","+
				"\"choices\":[{\"index\":0,\"delta\":{\"content\":\"%d\"},\"finish_reason\":null}]}\n\n", i)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	client := openai.NewClient(option.WithAPIKey("test"), option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	m := NewModelFromClient(&client, func(o *Options) { o.Model = "m" })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, errCh := m.Generate(ctx, model.Request{
		Contents: []core.Content{core.NewUserContent("hi")},
		Stream:   true,
	})

	// Nobody reads out: the producer fills the buffer and then waits.
	require.Eventually(t, func() bool { return len(out) == cap(out) }, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("streaming goroutine did not stop after cancellation")
	}

	n := 0
	for range out {
		n++
	}
	assert.Equal(t, cap(out), n)
}
