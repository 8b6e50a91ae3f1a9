/*
Package ranger wires the retention service together and runs it.

# Ranger

The main entrypoint to package ranger is the [Ranger] type, constructed with [New].
By default, [New] reads a [Config] from environment variables;
[WithConfig] replaces that.

[*Ranger.Guide] begins the web server and the daily worker.
By default, the web server listens on [DefaultPort] (:3000).
Stop both with [*Ranger.Shutdown] or by sending a signal [*Ranger.Guide] listens for.

[*Ranger.RunNow] runs the scheduler and the reminder emitter once without a web server.

# Stubs

In Demo, Development and Testing environments, a [Ranger] substitutes
in-memory stand-ins for Postgres and Redis when they are not configured,
and signs tokens with a development key when JWT_SIGNING_KEY is unset.
Elsewhere, missing configuration is an error wrapping [retention.ErrBadConfig].

# Configuration

Environment variables ought to be set in a file called ".env"
found at the same directory the application is executed from.

Here are the available environment variables.
  - AUDIT_STORE: where audit entries are kept, either "postgres" or "mongo"; default: postgres
  - BASE_URL: the base URL cancellation links point at; default: http://localhost:3000
  - CORS_ORIGIN: the origin allowed to make cross-origin requests; unset disables CORS
  - DATABASE_HOST: the host the database is running on; default: localhost
  - DATABASE_NAME: the name of the database
  - DATABASE_PASSWORD: the password for authenticating a connection to the database
  - DATABASE_PORT: the port the database is listening on; default: 5432
  - DATABASE_SSLMODE: the sslmode of the connection; default: prefer
  - DATABASE_URL: the fully-qualified connection string; replaces all other DATABASE_* env vars
  - DATABASE_USER: the user for authenticating a connection to the database
  - DATABASE_TEST_*: the same as DATABASE_*, read in the Testing environment
  - ENVIRONMENT: the environment the application is running in; cf. [retention.Environment]
  - ERASURE_CLIENT_ID, ERASURE_CLIENT_SECRET, ERASURE_TOKEN_URL: OAuth2 client credentials for the webhook
  - ERASURE_GCS_BUCKET: the Cloud Storage bucket holding account files
  - ERASURE_PURGE_TABLES: comma-separated tables whose account_id rows are purged
  - ERASURE_S3_ENDPOINT, ERASURE_S3_BUCKET, ERASURE_S3_ACCESS_KEY, ERASURE_S3_SECRET_KEY: the S3-compatible bucket holding account files
  - ERASURE_S3_USE_SSL: whether to reach ERASURE_S3_ENDPOINT over TLS; default: true
  - ERASURE_WEBHOOK_URL: the endpoint told to erase an account's marketplace data
  - JWT_SIGNING_KEY: the HMAC key bearer tokens, re-authentication proofs and cancellation links are signed with
  - LOG_LEVEL: the level at which to begin logging; default: INFO; cf. [logger.LogLevel]
  - MONGO_DATABASE: the database audit entries are kept in; default: retention
  - MONGO_URI: the connection string for MongoDB
  - PORT: the port the application should listen on; default: :3000
  - REDIS_PASSWORD: overrides the password in REDIS_URL
  - REDIS_URL: the connection string for Redis
  - RETENTION_GRACE_PERIOD: the time between scheduling and executing a deletion; default: 2160h (90 days)
  - SCHEDULER_HOUR, SCHEDULER_MINUTE: the UTC time of day the worker runs; default: 02:00
  - SCHEDULER_PARALLELISM: how many accounts the worker processes at once; default: 4
  - SELF_SERVICE_BURST: the burst of self-service requests allowed per IP; default: 5
  - SELF_SERVICE_RATE: the interval a self-service request token refills at; default: 6s
  - SENTRY_DSN: the DSN errors are reported to
  - SERVER_IDLE_TIMEOUT: the timeout - as understood by [time.ParseDuration] - for idling between requests when using keep-alives; default: 120s
  - SERVER_READ_TIMEOUT: the timeout for reading HTTP requests; default: 5s
  - SERVER_WRITE_TIMEOUT: the timeout for writing HTTP responses; default: 5m
  - SESSION_REVOCATION_TTL: how long a session revocation is remembered; default: 720h
*/
package ranger
