package keys

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/authgate/internal/server/token"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Provider fetches a JSON keyset document from an S3-compatible secret
// store. The document format:
//
//	{
//	  "active_kid": "k2",
//	  "keys": [
//	    {"kid": "k2", "secret": "<base64>"},
//	    {"kid": "k1", "secret": "<base64>"}
//	  ]
//	}
type S3Provider struct {
	Region       string
	BaseEndpoint string
	RootUser     string
	RootPassword string
	Bucket       string
	ObjectKey    string
}

type keySetDoc struct {
	ActiveKid string `json:"active_kid"`
	Keys      []struct {
		Kid    string `json:"kid"`
		Secret string `json:"secret"`
	} `json:"keys"`
}

func (p *S3Provider) Load(ctx context.Context) (*token.Keyring, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(p.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			p.RootUser,
			p.RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(p.BaseEndpoint)
		o.UsePathStyle = true
	})

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.Bucket),
		Key:    aws.String(p.ObjectKey),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching keyset %s/%s: %w", p.Bucket, p.ObjectKey, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading keyset body: %w", err)
	}
	return parseKeySet(body)
}

func parseKeySet(data []byte) (*token.Keyring, error) {
	doc := &keySetDoc{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decoding keyset: %w", err)
	}
	if doc.ActiveKid == "" {
		return nil, fmt.Errorf("keyset has no active_kid")
	}

	var active token.Key
	previous := make([]token.Key, 0, len(doc.Keys))
	for _, k := range doc.Keys {
		secret, err := base64.StdEncoding.DecodeString(k.Secret)
		if err != nil {
			return nil, fmt.Errorf("decoding secret for kid %q: %w", k.Kid, err)
		}
		key := token.Key{ID: k.Kid, Secret: secret}
		if k.Kid == doc.ActiveKid {
			active = key
			continue
		}
		previous = append(previous, key)
	}
	if active.ID == "" {
		return nil, fmt.Errorf("active_kid %q not present in keys", doc.ActiveKid)
	}
	return token.NewKeyring(active, previous...)
}
