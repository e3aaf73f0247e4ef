package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"vendor\":\"A\"}\n```":       `{"vendor":"A"}`,
		"Here you go: {\"vendor\":\"A\"} thanks": `{"vendor":"A"}`,
		`{"vendor":"A"}`:                         `{"vendor":"A"}`,
		"no json here":                           "no json here",
	}
	for in, want := range cases {
		assert.Equal(t, want, StripCodeFences(in), in)
	}
}

func TestNormalizeAnswersJSON(t *testing.T) {
	raw := []byte(`{"merchant":"Starbucks","total":350,"utr":"412345678901","date":null,"notes":"x"}`)

	out, changed, err := NormalizeAnswersJSON(raw, nil)
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, map[string]string{
		"vendor":         "Starbucks",
		"amount":         "350",
		"transaction_id": "412345678901",
		"date":           "",
	}, got)
	assert.Contains(t, changed, "notes(unknown)")
	assert.Contains(t, changed, "amount(number)")
	require.NoError(t, ValidateAnswersJSON(out))
}

func TestNormalizeAnswersJSON_KeepsExplicitKey(t *testing.T) {
	out, _, err := NormalizeAnswersJSON([]byte(`{"vendor":"Uber","merchant":"Other"}`), nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"vendor":"Uber","amount":"","transaction_id":"","date":""}`, string(out))
}

func TestNormalizeAnswersJSON_SynonymPrecedence(t *testing.T) {
	raw := []byte(`{"payee":"PhonePe Merchant","merchant":"Starbucks","utr":"UTR1","txn_id":"TXN1"}`)
	for i := 0; i < 20; i++ {
		out, changed, err := NormalizeAnswersJSON(raw, nil)
		require.NoError(t, err)
		assert.JSONEq(t, `{"vendor":"Starbucks","amount":"","transaction_id":"TXN1","date":""}`, string(out))
		assert.Equal(t, []string{"merchant->vendor", "payee->vendor", "txn_id->transaction_id", "utr->transaction_id"}, changed[:4])
	}
}

func TestNormalizeAnswersJSON_NotObject(t *testing.T) {
	_, _, err := NormalizeAnswersJSON([]byte(`[1,2]`), nil)
	assert.Error(t, err)
}

func TestValidateAnswersJSON_RejectsMissingKey(t *testing.T) {
	assert.Error(t, ValidateAnswersJSON([]byte(`{"vendor":"A","amount":"1","date":""}`)))
	assert.Error(t, ValidateAnswersJSON([]byte(`{"vendor":"A","amount":1,"transaction_id":"","date":""}`)))
}

func TestAnswerText(t *testing.T) {
	t.Run("json answer is rendered as labeled lines", func(t *testing.T) {
		txt, err := AnswerText("```json\n{\"vendor\":\"Starbucks\",\"amount\":\"350.00\",\"transaction_id\":\"\",\"date\":\"01/01/2025\"}\n```", nil)
		require.NoError(t, err)
		assert.Equal(t, "Merchant: Starbucks\nAmount: ₹350.00\nDate: 01/01/2025", txt)
	})

	t.Run("amount with currency marker is kept", func(t *testing.T) {
		txt, err := AnswerText(`{"vendor":"Uber","amount":"Rs. 1,250","transaction_id":"T123","date":""}`, nil)
		require.NoError(t, err)
		assert.Equal(t, "Merchant: Uber\nAmount: Rs. 1,250\nTransaction ID: T123", txt)
	})

	t.Run("free text passes through", func(t *testing.T) {
		txt, err := AnswerText("  Paid to Starbucks ₹350  ", nil)
		require.NoError(t, err)
		assert.Equal(t, "Paid to Starbucks ₹350", txt)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := AnswerText("   ", nil)
		assert.ErrorIs(t, err, ErrEmptyAnswer)
	})

	t.Run("all fields blank", func(t *testing.T) {
		_, err := AnswerText(`{"vendor":"","amount":"","transaction_id":"","date":""}`, nil)
		assert.ErrorIs(t, err, ErrEmptyAnswer)
	})
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,AQI=", DataURL([]byte{1, 2}, "image/png; charset=x"))
	assert.Equal(t, "image/jpeg", DetectMediaType([]byte{0xFF, 0xD8, 0xFF, 0xE0}, ""))
}
