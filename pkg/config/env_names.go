package config

// EnvPrefix is passed to envconfig; tags spell the full variable names so the
// prefix only matters for untagged fields.
const EnvPrefix = "BONIK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "BONIK_APP_ENV"
	EnvPort     = "BONIK_APP_PORT"
	EnvDBDSN    = "BONIK_DB_DSN"
	EnvDBHost   = "BONIK_DB_HOST"
	EnvDBUser   = "BONIK_DB_USER"
	EnvDBName   = "BONIK_DB_NAME"
	EnvRedisURL = "BONIK_REDIS_URL"

	EnvGCPProjectID = "BONIK_GCP_PROJECT_ID"

	EnvPubSubPaymentsTopic      = "BONIK_PUBSUB_PAYMENTS_TOPIC"
	EnvPubSubPaymentsSub        = "BONIK_PUBSUB_PAYMENTS_SUBSCRIPTION"
	EnvPubSubNotificationsTopic = "BONIK_PUBSUB_NOTIFICATIONS_TOPIC"
	EnvPubSubNotificationsSub   = "BONIK_PUBSUB_NOTIFICATIONS_SUBSCRIPTION"

	EnvStripeWebhookSecret = "BONIK_STRIPE_WEBHOOK_SECRET"
	EnvSSLCommerzStoreID   = "BONIK_SSLCOMMERZ_STORE_ID"
	EnvSSLCommerzStorePass = "BONIK_SSLCOMMERZ_STORE_PASSWORD"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
