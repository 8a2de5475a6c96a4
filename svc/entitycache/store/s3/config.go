package s3

// Config describes the bucket holding the entities.
type Config struct {
	Bucket          string `env:"S3_BUCKET"`
	Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	Endpoint        string `env:"S3_ENDPOINT"`                            // S3-compatible services such as MinIO
	ForcePathStyle  bool   `env:"S3_FORCE_PATH_STYLE" envDefault:"false"` // required by most S3-compatible services
	Prefix          string `env:"S3_PREFIX" envDefault:"entities/"`
}
