package media

import (
	"bytes"
	"context"
	"encoding/base64"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-assist-api/pkg/errors"
)

type stubImageAPI struct {
	mu       sync.Mutex
	calls    int
	requests []*ImageRequest
	payload  func(req *ImageRequest) []byte
	err      error
	raw      string
}

func (s *stubImageAPI) GenerateImage(_ context.Context, req *ImageRequest) (*ImageResponse, error) {
	s.mu.Lock()
	s.calls++
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	if s.raw != "" {
		return &ImageResponse{B64JSON: s.raw}, nil
	}
	return &ImageResponse{B64JSON: base64.StdEncoding.EncodeToString(s.payload(req))}, nil
}

func testImageSettings(t *testing.T) ImageSettings {
	return ImageSettings{
		Model:      "black-forest-labs/FLUX.1-dev",
		Width:      1024,
		Height:     768,
		Steps:      28,
		OutputPath: filepath.Join(t.TempDir(), "generated_image.png"),
	}
}

func TestImageInvoker_WritesArtifact(t *testing.T) {
	fixed := []byte("\x89PNG fixed image bytes")
	api := &stubImageAPI{payload: func(*ImageRequest) []byte { return fixed }}
	settings := testImageSettings(t)
	inv := NewImageInvoker(api, settings)

	res, err := inv.Generate(context.Background(), "A red door")
	require.NoError(t, err)

	abs, err := filepath.Abs(settings.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.ToSlash(abs), res.DownloadLink)

	got, err := os.ReadFile(abs)
	require.NoError(t, err)
	assert.Equal(t, fixed, got)

	require.Len(t, api.requests, 1)
	req := api.requests[0]
	assert.Equal(t, "A red door", req.Prompt)
	assert.Equal(t, 1024, req.Width)
	assert.Equal(t, 768, req.Height)
	assert.Equal(t, 28, req.Steps)
	assert.Equal(t, 1, req.N)
}

func TestImageInvoker_PublicURL(t *testing.T) {
	api := &stubImageAPI{payload: func(*ImageRequest) []byte { return []byte("img") }}
	settings := testImageSettings(t)
	settings.PublicURL = "http://localhost:8000/imageGen/latest"

	res, err := NewImageInvoker(api, settings).Generate(context.Background(), "A red door")
	require.NoError(t, err)
	assert.Equal(t, settings.PublicURL, res.DownloadLink)
}

func TestImageInvoker_ConcurrentLastWriterWins(t *testing.T) {
	first := bytes.Repeat([]byte("A"), 256*1024)
	second := bytes.Repeat([]byte("B"), 128*1024)
	api := &stubImageAPI{payload: func(req *ImageRequest) []byte {
		if req.Prompt == "first" {
			return first
		}
		return second
	}}
	settings := testImageSettings(t)
	inv := NewImageInvoker(api, settings)

	var wg sync.WaitGroup
	links := make([]string, 2)
	errs := make([]error, 2)
	for i, prompt := range []string{"first", "second"} {
		wg.Add(1)
		go func(i int, prompt string) {
			defer wg.Done()
			res, err := inv.Generate(context.Background(), prompt)
			errs[i] = err
			if res != nil {
				links[i] = res.DownloadLink
			}
		}(i, prompt)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, links[0], links[1], "两个请求都应指向同一个产物")

	got, err := os.ReadFile(settings.OutputPath)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(got, first) || bytes.Equal(got, second), "产物必须完整等于其中一次结果")

	entries, err := os.ReadDir(filepath.Dir(settings.OutputPath))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "不应残留临时文件")
}

func TestImageInvoker_MissingPrompt(t *testing.T) {
	api := &stubImageAPI{}
	inv := NewImageInvoker(api, testImageSettings(t))

	for _, prompt := range []string{"", "   "} {
		_, err := inv.Generate(context.Background(), prompt)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.CodeMissingPrompt))
	}
	assert.Equal(t, 0, api.calls)
}

func TestImageInvoker_Failures(t *testing.T) {
	_, err := NewImageInvoker(&stubImageAPI{err: stderrors.New("401 unauthorized")}, testImageSettings(t)).
		Generate(context.Background(), "A red door")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeUpstreamFailure))
	assert.Contains(t, err.Error(), "401 unauthorized")

	_, err = NewImageInvoker(&stubImageAPI{raw: "%%%not-base64"}, testImageSettings(t)).
		Generate(context.Background(), "A red door")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeMalformedReply))
}

type stubSpeechAPI struct {
	calls int
	last  *SpeechRequest
	audio []byte
	err   error
}

func (s *stubSpeechAPI) Convert(_ context.Context, req *SpeechRequest) (io.ReadCloser, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(bytes.NewReader(s.audio)), nil
}

type recordingPlayer struct {
	played []byte
	err    error
}

func (p *recordingPlayer) Play(_ context.Context, audio io.Reader) error {
	b, err := io.ReadAll(audio)
	if err != nil {
		return err
	}
	p.played = b
	return p.err
}

var testSpeechSettings = SpeechSettings{
	VoiceID:      "JBFqnCBsd6RMkjVDRZzb",
	ModelID:      "eleven_multilingual_v2",
	OutputFormat: "mp3_44100_128",
}

func TestSpeechInvoker_Speak(t *testing.T) {
	api := &stubSpeechAPI{audio: []byte("ID3 mp3 frames")}
	player := &recordingPlayer{}
	story := strings.Repeat("Once upon a time. ", 100)

	res, err := NewSpeechInvoker(api, player, testSpeechSettings).Speak(context.Background(), story)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)

	require.Equal(t, 1, api.calls, "整段文本应一次提交")
	assert.Equal(t, story, api.last.Text)
	assert.Equal(t, "JBFqnCBsd6RMkjVDRZzb", api.last.VoiceID)
	assert.Equal(t, "eleven_multilingual_v2", api.last.ModelID)
	assert.Equal(t, "mp3_44100_128", api.last.OutputFormat)
	assert.Equal(t, []byte("ID3 mp3 frames"), player.played)
}

func TestSpeechInvoker_MissingStory(t *testing.T) {
	api := &stubSpeechAPI{}
	player := &recordingPlayer{}
	inv := NewSpeechInvoker(api, player, testSpeechSettings)

	for _, story := range []string{"", " \n "} {
		_, err := inv.Speak(context.Background(), story)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.CodeMissingStory))
	}
	assert.Equal(t, 0, api.calls, "空文本不应调用外部服务")
	assert.Nil(t, player.played)
}

func TestSpeechInvoker_Failures(t *testing.T) {
	_, err := NewSpeechInvoker(&stubSpeechAPI{err: stderrors.New("quota_exceeded")}, &recordingPlayer{}, testSpeechSettings).
		Speak(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeUpstreamFailure))
	assert.Contains(t, err.Error(), "quota_exceeded")

	_, err = NewSpeechInvoker(&stubSpeechAPI{audio: []byte("x")}, &recordingPlayer{err: stderrors.New("no audio device")}, testSpeechSettings).
		Speak(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeUpstreamFailure))
}
