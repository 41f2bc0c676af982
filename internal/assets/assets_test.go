package assets

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/bookworm-infra-go/internal/logging"
)

type fakeS3 struct {
	existing map[string]bool
	headErr  error
	putErr   error
	puts     map[string][]byte

	// pages are returned by ListObjectsV2 in order, keyed by continuation token.
	pages     [][]string
	listErr   error
	deleteOut *s3.DeleteObjectsOutput
	deleted   [][]string
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if f.existing[*in.Bucket+"/"+*in.Key] {
		return &s3.HeadObjectOutput{}, nil
	}
	return nil, &s3types.NotFound{}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.puts == nil {
		f.puts = make(map[string][]byte)
	}
	f.puts[*in.Bucket+"/"+*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	page := 0
	if in.ContinuationToken != nil {
		page, _ = strconv.Atoi(*in.ContinuationToken)
	}
	out := &s3.ListObjectsV2Output{}
	if page < len(f.pages) {
		for _, key := range f.pages[page] {
			out.Contents = append(out.Contents, s3types.Object{Key: aws.String(key)})
		}
	}
	if page+1 < len(f.pages) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(strconv.Itoa(page + 1))
	}
	return out, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	var keys []string
	for _, id := range in.Delete.Objects {
		keys = append(keys, *id.Key)
	}
	f.deleted = append(f.deleted, keys)
	if f.deleteOut != nil {
		return f.deleteOut, nil
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func writeBundle(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookworm-upload-cover.zip")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStage(t *testing.T) {
	path := writeBundle(t, "hello")

	a, err := Stage(path)
	require.NoError(t, err)

	// sha256("hello")
	const hash = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	assert.Equal(t, hash, a.Hash)
	assert.Equal(t, "assets/"+hash+".zip", a.Key)
	assert.EqualValues(t, 5, a.Size)
}

func TestStage_Missing(t *testing.T) {
	_, err := Stage("/nonexistent/bundle.zip")
	assert.ErrorContains(t, err, "asset /nonexistent/bundle.zip does not exist")
}

func TestUpload(t *testing.T) {
	a, err := Stage(writeBundle(t, "code"))
	require.NoError(t, err)

	fake := &fakeS3{}
	uploaded, err := NewUploader(fake, logging.Discard()).Upload(context.Background(), "assets-bucket", a)
	require.NoError(t, err)

	assert.True(t, uploaded)
	assert.Equal(t, []byte("code"), fake.puts["assets-bucket/"+a.Key])
}

func TestUpload_SkipsExisting(t *testing.T) {
	a, err := Stage(writeBundle(t, "code"))
	require.NoError(t, err)

	fake := &fakeS3{existing: map[string]bool{"assets-bucket/" + a.Key: true}}
	uploaded, err := NewUploader(fake, logging.Discard()).Upload(context.Background(), "assets-bucket", a)
	require.NoError(t, err)

	assert.False(t, uploaded)
	assert.Empty(t, fake.puts)
}

func TestUpload_Errors(t *testing.T) {
	a, err := Stage(writeBundle(t, "code"))
	require.NoError(t, err)

	t.Run("head forbidden", func(t *testing.T) {
		fake := &fakeS3{headErr: &smithy.GenericAPIError{Code: "Forbidden", Message: "denied"}}
		_, err := NewUploader(fake, logging.Discard()).Upload(context.Background(), "b", a)
		assert.ErrorContains(t, err, "checking s3://b/"+a.Key)
	})

	t.Run("head not found api error then put fails", func(t *testing.T) {
		fake := &fakeS3{
			headErr: &smithy.GenericAPIError{Code: "NotFound"},
			putErr:  errors.New("boom"),
		}
		_, err := NewUploader(fake, logging.Discard()).Upload(context.Background(), "b", a)
		assert.ErrorContains(t, err, "uploading s3://b/"+a.Key+": boom")
	})
}

func TestPurge(t *testing.T) {
	fake := &fakeS3{pages: [][]string{
		{"assets/a.zip", "assets/b.zip"},
		{"assets/c.zip"},
	}}

	n, err := NewUploader(fake, logging.Discard()).Purge(context.Background(), "assets-bucket")
	require.NoError(t, err)

	assert.Equal(t, 3, n)
	assert.Equal(t, [][]string{{"assets/a.zip", "assets/b.zip"}, {"assets/c.zip"}}, fake.deleted)
}

func TestPurge_EmptyBucket(t *testing.T) {
	fake := &fakeS3{}

	n, err := NewUploader(fake, logging.Discard()).Purge(context.Background(), "assets-bucket")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, fake.deleted)
}

func TestPurge_MissingBucket(t *testing.T) {
	fake := &fakeS3{listErr: &s3types.NoSuchBucket{}}

	n, err := NewUploader(fake, logging.Discard()).Purge(context.Background(), "gone")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPurge_Errors(t *testing.T) {
	t.Run("list denied", func(t *testing.T) {
		fake := &fakeS3{listErr: &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}}
		_, err := NewUploader(fake, logging.Discard()).Purge(context.Background(), "b")
		assert.ErrorContains(t, err, "listing s3://b/assets/")
	})

	t.Run("object not deleted", func(t *testing.T) {
		fake := &fakeS3{
			pages: [][]string{{"assets/a.zip"}},
			deleteOut: &s3.DeleteObjectsOutput{Errors: []s3types.Error{
				{Key: aws.String("assets/a.zip"), Message: aws.String("Access Denied")},
			}},
		}
		_, err := NewUploader(fake, logging.Discard()).Purge(context.Background(), "b")
		assert.ErrorContains(t, err, "deleting s3://b/assets/a.zip: Access Denied")
	})
}
