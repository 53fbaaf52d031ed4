package configuration

import "github.com/adampresley/configinator"

type Config struct {
	AwsEndpointUrl        string `flag:"awsep" env:"AWS_ENDPOINT_URL" default:"http://localhost:4566" description:"AWS endpoint URL"`
	AwsRegion             string `flag:"awsregion" env:"AWS_REGION" default:"us-central-1" description:"AWS region"`
	AwsAccessKeyId        string `flag:"awsaccesskeyid" env:"AWS_ACCESS_KEY_ID" default:"" description:"AWS access key ID"`
	AwsSecretAccessKey    string `flag:"awssecretaccesskey" env:"AWS_SECRET_ACCESS_KEY" default:"" description:"AWS secret access key"`
	AwsBucket             string `flag:"awsbucket" env:"AWS_BUCKET" default:"photogallery" description:"S3 bucket"`
	BlobBackend           string `flag:"blobbackend" env:"BLOB_BACKEND" default:"s3" description:"Blob store backend. Valid values are 's3' and 'minio'"`
	DSN                   string `flag:"dsn" env:"DSN" default:"file:./data/photogallery.db" description:"Data source name of the favorites database"`
	Host                  string `flag:"host" env:"HOST" default:"localhost:8081" description:"The address and port to bind the HTTP server to"`
	ImagePrefix           string `flag:"imageprefix" env:"IMAGE_PREFIX" default:"images" description:"Blob store folder holding the original images"`
	LogLevel              string `flag:"loglevel" env:"LOG_LEVEL" default:"debug" description:"The log level to use. Valid values are 'debug', 'info', 'warn', and 'error'"`
	MaxResolveWorkers     int    `flag:"mrw" env:"MAX_RESOLVE_WORKERS" default:"10" description:"Maximum number of concurrent URL resolutions during a catalog load"`
	MaxUploadMB           int    `flag:"maxuploadmb" env:"MAX_UPLOAD_MB" default:"64" description:"Maximum size of an upload request in megabytes"`
	MinioEndpoint         string `flag:"minioep" env:"MINIO_ENDPOINT" default:"localhost:9000" description:"MinIO endpoint (host:port)"`
	MinioUseSSL           bool   `flag:"miniossl" env:"MINIO_USE_SSL" default:"false" description:"Use TLS when talking to MinIO"`
	NotificationDismissMS int    `flag:"ndm" env:"NOTIFICATION_DISMISS_MS" default:"3000" description:"Milliseconds before a notification is dismissed"`
	OwnerID               string `flag:"owner" env:"OWNER_ID" default:"default-user" description:"Identifier of the gallery owner"`
	PublicBaseURL         string `flag:"publicbaseurl" env:"PUBLIC_BASE_URL" default:"" description:"Public base URL of the bucket. When empty, images are shown through presigned URLs"`
	UploadPacingMS        int    `flag:"upm" env:"UPLOAD_PACING_MS" default:"3000" description:"Milliseconds to wait between two uploaded files"`
	URLCacheSize          int    `flag:"urlcachesize" env:"URL_CACHE_SIZE" default:"1000" description:"Number of resolved image URLs to cache"`
	URLCacheTTLMinutes    int    `flag:"urlcachettl" env:"URL_CACHE_TTL_MINUTES" default:"25" description:"Minutes a signed image URL stays cached. Keep it below URL_EXPIRATION_MINUTES"`
	URLExpirationMinutes  int    `flag:"urlexpiration" env:"URL_EXPIRATION_MINUTES" default:"60" description:"Minutes a presigned image URL stays valid"`
}

func LoadConfig() Config {
	config := Config{}
	configinator.Behold(&config)
	return config
}
