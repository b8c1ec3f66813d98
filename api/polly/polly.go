package polly

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"epub-locations/books"
	"epub-locations/storage"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/aws-sdk-go/aws"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MaxTextLength is the Polly limit on billed characters per request.
const MaxTextLength = 3000

var ErrTextTooLong = errors.New("polly: location text exceeds synthesis limit")

// SpeechSynthesizer is the part of the Polly client the narrator uses.
type SpeechSynthesizer interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

type Narrator struct {
	client   SpeechSynthesizer
	limiter  *rate.Limiter
	voice    types.VoiceId
	cacheDir string
	logger   *zap.Logger
}

func NewNarrator(client SpeechSynthesizer, voice string, rateLimit int, cacheDir string, logger *zap.Logger) *Narrator {
	return &Narrator{
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		voice:    types.VoiceId(voice),
		cacheDir: cacheDir,
		logger:   logger,
	}
}

// NewClient builds a Polly client from the default AWS credential chain.
func NewClient(ctx context.Context) (*polly.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load credentials: %w", err)
	}
	return polly.NewFromConfig(cfg), nil
}

// AudioPath is where the MP3 for a location of a book is cached.
func (n *Narrator) AudioPath(bookID string, index int) string {
	return filepath.Join(n.cacheDir, bookID, fmt.Sprintf("%0*d.mp3", 7, index))
}

// SynthesizeLocation returns the path of an MP3 reading the location aloud,
// synthesizing it only when it is not cached yet.
func (n *Narrator) SynthesizeLocation(ctx context.Context, bookID string, loc books.Location) (string, error) {
	filePath := n.AudioPath(bookID, loc.Index)
	if storage.Exists(filePath) {
		return filePath, nil
	}

	if utf8.RuneCountInString(loc.Text) > MaxTextLength {
		return "", fmt.Errorf("%w: location %d", ErrTextTooLong, loc.Index)
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return "", err
	}

	output, err := n.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Text:         aws.String(loc.Text),
		VoiceId:      n.voice,
		OutputFormat: types.OutputFormatMp3,
	})
	if err != nil {
		return "", fmt.Errorf("could not get synthesized output: %w", err)
	}
	defer output.AudioStream.Close()

	if err := storage.CreateDirectoryIfNotExists(filepath.Dir(filePath)); err != nil {
		return "", fmt.Errorf("could not create audio directory: %w", err)
	}

	if err := writeAudio(filePath, output.AudioStream); err != nil {
		return "", err
	}

	n.logger.Info("synthesized location",
		zap.String("book", bookID),
		zap.Int("location", loc.Index),
		zap.String("file", filePath))

	return filePath, nil
}

func writeAudio(filePath string, audio io.Reader) error {
	outFile, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}

	if _, err = io.Copy(outFile, audio); err != nil {
		outFile.Close()
		os.Remove(filePath)
		return fmt.Errorf("could not set data to output file: %w", err)
	}
	return outFile.Close()
}
