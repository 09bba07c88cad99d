package media

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects      map[string]string
	deleteCalls  [][]string
	listPrefixes []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = string(body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	var keys []string
	for _, id := range in.Delete.Objects {
		keys = append(keys, aws.ToString(id.Key))
		delete(f.objects, aws.ToString(id.Key))
	}
	f.deleteCalls = append(f.deleteCalls, keys)
	return &s3.DeleteObjectsOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	prefix := aws.ToString(in.Prefix)
	f.listPrefixes = append(f.listPrefixes, prefix)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
		}
	}
	return out, nil
}

func TestS3Store_UploadReturnsPublicURL(t *testing.T) {
	fake := newFakeS3()
	store := newS3Store(fake, "bucket", "https://cdn.example.com")

	url, err := store.Upload(context.Background(), "ns/cars/1/a.jpg", strings.NewReader("jpeg"), 4, "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/ns/cars/1/a.jpg", url)
	assert.Equal(t, "jpeg", fake.objects["ns/cars/1/a.jpg"])
}

func TestS3Store_DeleteFolderOnlyTouchesPrefix(t *testing.T) {
	fake := newFakeS3()
	fake.objects["ns/cars/1/a.jpg"] = ""
	fake.objects["ns/cars/1/b.jpg"] = ""
	fake.objects["ns/cars/10/c.jpg"] = ""
	store := newS3Store(fake, "bucket", "https://cdn.example.com")

	require.NoError(t, store.DeleteFolder(context.Background(), "ns/cars/1"))

	assert.Equal(t, []string{"ns/cars/1/"}, fake.listPrefixes)
	assert.Len(t, fake.objects, 1)
	assert.Contains(t, fake.objects, "ns/cars/10/c.jpg")
}

func TestS3Store_DeleteFolderBatches(t *testing.T) {
	fake := newFakeS3()
	for i := 0; i < 1500; i++ {
		fake.objects[fmt.Sprintf("ns/fueling/1/%04d.jpg", i)] = ""
	}
	store := newS3Store(fake, "bucket", "https://cdn.example.com")

	require.NoError(t, store.DeleteFolder(context.Background(), "ns/fueling/1"))

	require.Len(t, fake.deleteCalls, 2)
	assert.Len(t, fake.deleteCalls[0], 1000)
	assert.Len(t, fake.deleteCalls[1], 500)
	assert.Empty(t, fake.objects)
}

func TestS3Store_DeleteEmptyFolder(t *testing.T) {
	fake := newFakeS3()
	store := newS3Store(fake, "bucket", "https://cdn.example.com")

	require.NoError(t, store.DeleteFolder(context.Background(), "ns/cars/1"))
	assert.Empty(t, fake.deleteCalls)
}
