package importer

import (
	"context"
	"strings"
	"testing"

	storagemocks "catalog-manager/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildReport_OriginalColumnsPlusReason(t *testing.T) {
	headers := []string{"Model Code", "SKU", "Price"}
	errs := []RowError{
		{
			Line:   3,
			Row:    map[string]string{"Model Code": "XX-1", "SKU": "A-1", "Price": "free"},
			Reason: ReasonInvalidPrice,
		},
	}

	out := string(buildReport(headers, errs))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Model Code,SKU,Price,reason", lines[0])
	assert.Equal(t, "XX-1,A-1,free,"+ReasonInvalidPrice, lines[1])
}

func TestUploadReport_StoresUnderReportsPrefix(t *testing.T) {
	client := &storagemocks.Client{}
	var objectName string
	client.On("PutObject", mock.Anything, "catalog", mock.AnythingOfType("string"),
		mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { objectName = args.String(2) }).
		Return(minio.UploadInfo{}, nil)

	imp := New(nil, client, "catalog", &fakeScheduler{}, zap.NewNop())

	name := imp.uploadReport(context.Background(), []string{"sku"},
		[]RowError{{Line: 2, Row: map[string]string{"sku": ""}, Reason: ReasonMissingSkuCode}})

	// The stored object carries the prefix; the returned name is the bare
	// download name.
	require.NotEmpty(t, name)
	assert.NotContains(t, name, "/")
	assert.True(t, strings.HasSuffix(name, ".csv"))
	assert.Equal(t, "reports/"+name, objectName)
	client.AssertExpectations(t)
}

func TestUploadReport_NoErrorsNoUpload(t *testing.T) {
	client := &storagemocks.Client{}
	imp := New(nil, client, "catalog", &fakeScheduler{}, zap.NewNop())

	assert.Empty(t, imp.uploadReport(context.Background(), []string{"sku"}, nil))
	client.AssertNotCalled(t, "PutObject")
}
