// Package tts reads text aloud with the Azure Cognitive Services speech REST
// endpoint and returns MP3 audio.
package tts

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/islamkidszone/kidszone-api/internal/apperror"
)

const (
	DefaultVoice  = "en-US-AnaNeural"
	MaxTextLength = 1000
	ContentType   = "audio/mpeg"

	outputFormat = "audio-16khz-128kbitrate-mono-mp3"
	maxAudioSize = 10 << 20
)

// voicePattern matches Azure neural voice names such as "en-US-AnaNeural" or
// "ar-SA-HamedNeural".
var voicePattern = regexp.MustCompile(`^([a-z]{2,3}-[A-Z]{2})-[A-Za-z]+Neural$`)

// Synthesizer calls Azure TTS.
type Synthesizer struct {
	key      string
	endpoint string
	voice    string
	http     *http.Client
}

// NewSynthesizer builds a client for region. An empty key or region leaves it
// disabled; Synthesize then reports ErrUnavailable.
func NewSynthesizer(key, region, voice string) *Synthesizer {
	if voice == "" {
		voice = DefaultVoice
	}
	s := &Synthesizer{
		key:   key,
		voice: voice,
		http:  &http.Client{Timeout: 20 * time.Second},
	}
	if region != "" {
		s.endpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region)
	}
	return s
}

// WithEndpoint points the client somewhere else; tests use an httptest server.
func (s *Synthesizer) WithEndpoint(url string) *Synthesizer {
	s.endpoint = url
	return s
}

func (s *Synthesizer) Enabled() bool {
	return s.key != "" && s.endpoint != ""
}

// Synthesize returns MP3 audio for text. voice may be empty to use the
// configured default.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if !s.Enabled() {
		return nil, apperror.Unavailable("Text to speech")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.ValidationFailed("text", "text is required")
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return nil, apperror.ValidationFailed("text", fmt.Sprintf("must be at most %d characters", MaxTextLength))
	}

	if voice == "" {
		voice = s.voice
	}
	ssml, err := BuildSSML(text, voice)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("tts: building request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", outputFormat)
	req.Header.Set("User-Agent", "kidszone-api")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts: calling azure: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, apperror.RateLimited("Text to speech is busy. Please try again in a moment.")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperror.Unavailable("Text to speech")
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts: azure returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioSize))
	if err != nil {
		return nil, fmt.Errorf("tts: reading audio: %w", err)
	}
	return audio, nil
}

// BuildSSML wraps text in a single-voice SSML document. The language tag is
// taken from the voice name.
func BuildSSML(text, voice string) (string, error) {
	m := voicePattern.FindStringSubmatch(voice)
	if m == nil {
		return "", apperror.ValidationFailed("voice", "unknown voice")
	}
	lang := m[1]

	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return "", fmt.Errorf("tts: escaping text: %w", err)
	}

	return fmt.Sprintf(
		`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="%s"><voice xml:lang="%s" name="%s">%s</voice></speak>`,
		lang, lang, voice, escaped.String(),
	), nil
}
