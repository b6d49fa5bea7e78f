package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type s3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Saver stores archives as objects under a key prefix.
type S3Saver struct {
	s3Client  s3PutObjectAPI
	bucket    string
	keyPrefix string

	logger *slog.Logger
}

var _ Saver = (*S3Saver)(nil)

func NewS3Saver(ctx context.Context, logger *slog.Logger, bucket, keyPrefix string) (*S3Saver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required.")
	}

	cfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	return &S3Saver{
		s3Client:  s3.NewFromConfig(cfg),
		bucket:    bucket,
		keyPrefix: keyPrefix,
		logger:    logger,
	}, nil
}

func (s *S3Saver) Save(ctx context.Context, filename string, data []byte) error {
	key := path.Join(s.keyPrefix, filename)
	params := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/zip"),
	}
	if _, err := s.s3Client.PutObject(ctx, params); err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", s.bucket, key, err)
	}
	s.logger.Info("Archive stored", "bucket", s.bucket, "key", key, "bytes", len(data))
	return nil
}

type sesSendRawEmailAPI interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// SESNotifier mails the session outcome.
type SESNotifier struct {
	sesClient     sesSendRawEmailAPI
	configSetName string
	sourceArn     string
	from          string
	to            []string
	subject       string

	logger *slog.Logger
}

var _ Notifier = (*SESNotifier)(nil)

func NewSESNotifier(ctx context.Context, logger *slog.Logger,
	sesConfigSetName string, sesSourceArn string,
	from string, to []string, subject string,
) (*SESNotifier, error) {
	if from == "" || len(to) == 0 {
		return nil, fmt.Errorf("from and to are required.")
	}
	if subject == "" {
		subject = "Guild export"
	}
	cfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	return &SESNotifier{
		sesClient:     ses.NewFromConfig(cfg),
		configSetName: sesConfigSetName,
		sourceArn:     sesSourceArn,
		from:          from,
		to:            to,
		subject:       subject,
		logger:        logger,
	}, nil
}

func (n *SESNotifier) Notify(ctx context.Context, o Outcome) error {
	maildata := &Mail{
		From:     n.from,
		To:       n.to,
		Subject:  fmt.Sprintf("%s: %s", n.subject, o.Message()),
		Boundary: boundary(),
	}
	body, err := toMIMEBody(outcomeMailText(o), maildata.Boundary)
	if err != nil {
		return err
	}
	maildata.Body = body

	input := &ses.SendRawEmailInput{
		Source:       aws.String(maildata.From),
		Destinations: maildata.To,
		RawMessage: &sestypes.RawMessage{
			Data: maildata.raw(),
		},
	}
	if n.configSetName != "" {
		input.ConfigurationSetName = aws.String(n.configSetName)
	}
	if n.sourceArn != "" {
		input.SourceArn = aws.String(n.sourceArn)
	}

	if _, err := n.sesClient.SendRawEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send outcome mail: %w", err)
	}
	n.logger.Info("Outcome mail sent", "to", maildata.To)
	return nil
}
