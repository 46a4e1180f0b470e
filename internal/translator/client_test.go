package translator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestClient_Detect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/detect", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.NotEmpty(t, r.Header.Get("X-ClientTraceId"))

		var payload []map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "hola, mi lavadora hace ruido", payload[0]["text"])

		json.NewEncoder(w).Encode([]detectResult{{Language: "es", Score: 0.98}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "region1", quietLogger())

	lang, score, err := client.Detect(context.Background(), "hola, mi lavadora hace ruido")
	require.NoError(t, err)
	assert.Equal(t, "es", lang)
	assert.Equal(t, 0.98, score)
}

func TestClient_Translate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate", r.URL.Path)
		assert.Equal(t, "es", r.URL.Query().Get("to"))
		assert.Equal(t, "en", r.URL.Query().Get("from"))

		json.NewEncoder(w).Encode([]translateResult{{
			Translations: []translation{{Text: "lavadora ruidosa"}},
		}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "", quietLogger())

	out, err := client.Translate(context.Background(), "noisy washer", "ES", "EN")
	require.NoError(t, err)
	assert.Equal(t, "lavadora ruidosa", out)
}

func TestClient_Translate_NorwegianAlias(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "nb", r.URL.Query().Get("to"))
		json.NewEncoder(w).Encode([]translateResult{{
			Translations: []translation{{Text: "ok"}},
		}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "", quietLogger())

	_, err := client.Translate(context.Background(), "text", "no", "")
	require.NoError(t, err)
}

func TestClient_TranslateOrPassthrough_FallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "", quietLogger())

	out := client.TranslateOrPassthrough(context.Background(), "original text", "es", "en")
	assert.Equal(t, "original text", out)
}
