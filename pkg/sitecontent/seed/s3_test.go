package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockS3 keeps objects in memory keyed by bucket/key.
type mockS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *mockS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	body, ok := m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	size := int64(len(body))
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(string(body))),
		ContentLength: aws.Int64(size),
		ContentRange:  aws.String(fmt.Sprintf("bytes 0-%d/%d", size-1, size)),
	}, nil
}

func (m *mockS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart uploads are not supported by the mock")
}

func (m *mockS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart uploads are not supported by the mock")
}

func (m *mockS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart uploads are not supported by the mock")
}

func (m *mockS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, nil
}

func TestS3Store_WriteThenOpen(t *testing.T) {
	ctx := context.Background()
	mock := &mockS3{}
	store := NewS3StoreWithAPI(mock, nil)

	const doc = `{"items":[{"type":"page","title":"Home","slug":"home","content":{}}]}`
	require.NoError(t, store.Write(ctx, "s3://site-seeds/pages.json", strings.NewReader(doc)))
	assert.Equal(t, doc, string(mock.objects["site-seeds/pages.json"]))

	rc, err := store.Open(ctx, "s3://site-seeds/pages.json")
	require.NoError(t, err)
	defer rc.Close()

	reqs, err := Decode(rc)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "home", reqs[0].Slug)
}

func TestS3Store_OpenMissing(t *testing.T) {
	store := NewS3StoreWithAPI(&mockS3{}, nil)
	_, err := store.Open(context.Background(), "s3://site-seeds/absent.json")
	assert.Error(t, err)
}

func TestParseS3Location(t *testing.T) {
	bucket, key, err := parseS3Location("s3://site-seeds/2024/pages.json")
	require.NoError(t, err)
	assert.Equal(t, "site-seeds", bucket)
	assert.Equal(t, "2024/pages.json", key)

	for _, bad := range []string{"s3://bucket-only", "s3:///key", "https://bucket/key"} {
		_, _, err := parseS3Location(bad)
		assert.Error(t, err, bad)
	}
}
