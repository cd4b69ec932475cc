package importer

import (
	"bytes"
	"context"
	"encoding/csv"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// buildReport renders rejected rows as a CSV with the original columns plus
// a trailing reason column, preserving the input's column order.
func buildReport(headers []string, errs []RowError) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	record := make([]string, 0, len(headers)+1)
	w.Write(append(append(record, headers...), "reason"))

	for _, e := range errs {
		record = record[:0]
		for _, h := range headers {
			record = append(record, e.Row[h])
		}
		w.Write(append(record, e.Reason))
	}

	w.Flush()
	return buf.Bytes()
}

// uploadReport stores the error report under the reports/ prefix and returns
// the bare report name, which is what the download endpoint takes. Upload
// failures are logged and swallowed: the caller still gets the inline error
// rows, only the download link is lost.
func (i *Importer) uploadReport(ctx context.Context, headers []string, errs []RowError) string {
	if len(errs) == 0 || i.storage == nil {
		return ""
	}

	name := uuid.New().String() + ".csv"
	data := buildReport(headers, errs)

	_, err := i.storage.PutObject(ctx, i.bucket, "reports/"+name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		i.logger.Warn("Failed to upload import error report", zap.Error(err))
		return ""
	}
	return name
}
