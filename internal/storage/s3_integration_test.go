//go:build integration

package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cloo-solutions/medassist/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_S3Source_ListAndRead(t *testing.T) {
	ctx := context.Background()

	rc := testutil.NewRustFSContainer(ctx, t)
	defer func() { _ = rc.Terminate(ctx) }()

	src, err := NewS3Source(ctx, S3ClientConfig{
		Endpoint:        rc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "knowledge",
		Prefix:          "docs",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, src.EnsureBucket(ctx))
	require.NoError(t, src.EnsureBucket(ctx))

	client, ok := src.client.(*s3.Client)
	require.True(t, ok)

	objects := map[string]string{
		"docs/pots.txt":        "Heart rate rises on standing.",
		"docs/eds.txt":         "Connective tissue disorder.",
		"docs/nested/skip.txt": "not listed",
		"other.txt":            "outside prefix",
	}
	for key, body := range objects {
		_, err := client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String("knowledge"),
			Key:    aws.String(key),
			Body:   strings.NewReader(body),
		})
		require.NoError(t, err)
	}

	names, err := src.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"eds.txt", "pots.txt"}, names)

	data, err := src.Read(ctx, "pots.txt")
	require.NoError(t, err)
	assert.Equal(t, "Heart rate rises on standing.", string(data))

	_, err = src.Read(ctx, "missing.txt")
	assert.Error(t, err)
}
