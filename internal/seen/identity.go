package seen

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/jimezsa/nursejobs/internal/models"
)

const keySeparator = "-"

// Key returns the identity source for a job: the apply link, or
// title-company when there is no link.
func Key(job models.Job) string {
	if job.ApplyLink != "" {
		return job.ApplyLink
	}
	return job.JobTitle + keySeparator + job.Company
}

// Identity is the hex SHA-256 digest of Key.
func Identity(job models.Job) string {
	sum := sha256.Sum256([]byte(Key(job)))
	return hex.EncodeToString(sum[:])
}
