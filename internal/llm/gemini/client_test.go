package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/joseph-ayodele/dipex/internal/llm"
)

type fakeModels struct {
	text     string
	err      error
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func TestClient_Extract(t *testing.T) {
	fm := &fakeModels{text: `{"vendor":"Uber","amount":"249","transaction_id":"","date":"5 Mar 2025"}`}
	c := newWithGenerator(Config{}, fm, nil)

	txt, err := c.Extract(context.Background(), []byte("jpegbytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "Merchant: Uber\nAmount: ₹249\nDate: 5 Mar 2025", txt)

	assert.Equal(t, DefaultModelName, fm.model)
	require.Len(t, fm.contents, 1)
	require.Len(t, fm.contents[0].Parts, 2)
	assert.Equal(t, llm.UserPrompt, fm.contents[0].Parts[0].Text)
	assert.Equal(t, "image/jpeg", fm.contents[0].Parts[1].InlineData.MIMEType)
	assert.Equal(t, "application/json", fm.config.ResponseMIMEType)
}

func TestClient_Extract_Errors(t *testing.T) {
	c := newWithGenerator(Config{}, &fakeModels{err: errors.New("quota")}, nil)
	_, err := c.Extract(context.Background(), []byte("x"), "image/png")
	assert.ErrorContains(t, err, "quota")

	c = newWithGenerator(Config{}, &fakeModels{text: ""}, nil)
	_, err = c.Extract(context.Background(), []byte("x"), "image/png")
	assert.ErrorIs(t, err, llm.ErrEmptyAnswer)

	_, err = NewClient(context.Background(), Config{}, nil)
	assert.Error(t, err)
}
