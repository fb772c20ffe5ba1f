package s3

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// joinKey prepends the root prefix to name. Unlike path.Join it keeps a
// trailing slash, so listing "run-a/" does not match "run-ab/".
func joinKey(rootPrefix, name string) string {
	if rootPrefix == "" {
		return name
	}
	return strings.TrimSuffix(rootPrefix, "/") + "/" + name
}

// isNotFound reports whether err signals a missing object.
func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	// S3-compatible services do not always map to the modeled types.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// listObjects is a shared helper for listing S3 objects.
func listObjects(ctx context.Context, client s3.ListObjectsV2APIClient, bucket, fullPrefix, rootPrefix string) ([]string, error) {
	var keys []string

	root := ""
	if rootPrefix != "" {
		root = strings.TrimSuffix(rootPrefix, "/") + "/"
	}

	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(fullPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), root))
		}
	}
	slices.Sort(keys)
	return keys, nil
}
