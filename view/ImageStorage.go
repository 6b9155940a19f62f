package view

type ImageDeleteStatus string

const (
	ImageDeleted  ImageDeleteStatus = "deleted"
	ImageNotFound ImageDeleteStatus = "not_found"
	ImageError    ImageDeleteStatus = "error"
)

// Only an explicit "deleted" confirmation counts as success.
func (s ImageDeleteStatus) IsDeleted() bool {
	return s == ImageDeleted
}

type MinioStorageCreds struct {
	BucketName      string
	Endpoint        string
	AccessKeyId     string
	SecretAccessKey string
	UseSSL          bool
}

type CloudinaryCreds struct {
	CloudName string
	ApiKey    string
	ApiSecret string
}
