package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ENV_PREFIX = "STOCK_CHAT"

	URL_APP_NAME                 = "URL_App_Name"
	URL_PATH_PREFIX              = "URL_Path_Prefix"
	URL_BASE_PATH                = "URL_Base_Path"
	HTTP_SHUTDOWN_TIMEOUT        = "HTTP_Shutdown_Timeout"
	PROFILE                      = "Enable_Profile"
	BROKERS                      = "Kafka_Brokers"
	BOT_REQUESTS_TOPIC           = "Kafka_Bot_Requests_Topic"
	BOT_REQUESTS_GROUP_ID        = "Kafka_Bot_Requests_Group_Id"
	BOT_RESPONSES_TOPIC          = "Kafka_Bot_Responses_Topic"
	BOT_RESPONSES_GROUP_ID       = "Kafka_Bot_Responses_Group_Id"
	BOT_RESPONSES_BATCH_SIZE     = "Kafka_Bot_Responses_Batch_Size"
	BOT_RESPONSES_BATCH_BYTES    = "Kafka_Bot_Responses_Batch_Bytes"
	KAFKA_USERNAME               = "Kafka_Username"
	KAFKA_PASSWORD               = "Kafka_Password"
	KAFKA_SASL_MECHANISM         = "Kafka_SASL_Mechanism"
	KAFKA_CA                     = "Kafka_CA"
	DEFAULT_BROKER_ADDRESS       = "kafka:29092"
	CHAT_DATABASE_HOST           = "Chat_Database_Host"
	CHAT_DATABASE_PORT           = "Chat_Database_Port"
	CHAT_DATABASE_USER           = "Chat_Database_User"
	CHAT_DATABASE_PASSWORD       = "Chat_Database_Password"
	CHAT_DATABASE_NAME           = "Chat_Database_Name"
	CHAT_DATABASE_SSL_MODE       = "Chat_Database_SSL_Mode"
	CHAT_DATABASE_SSL_ROOT_CERT  = "Chat_Database_SSL_Root_Cert"
	CHAT_DATABASE_QUERY_TIMEOUT  = "Chat_Database_Query_Timeout"
	REDIS_ADDRESS                = "Redis_Address"
	REDIS_PASSWORD               = "Redis_Password"
	REDIS_DB                     = "Redis_DB"
	SESSION_TTL                  = "Session_TTL"
	SESSION_TOKEN_SIGNING_KEY    = "Session_Token_Signing_Key"
	SESSION_TOKEN_EXPIRY         = "Session_Token_Expiry"
	QUOTE_API_STOCK_URL          = "Quote_Api_Stock_Url"
	QUOTE_API_RANGE_URL          = "Quote_Api_Range_Url"
	QUOTE_API_USER_AGENT         = "Quote_Api_User_Agent"
	QUOTE_API_TIMEOUT            = "Quote_Api_Timeout"
	QUOTE_CACHE_SIZE             = "Quote_Cache_Size"
	QUOTE_CACHE_TTL              = "Quote_Cache_TTL"
	COMMAND_RECORD_RETENTION_AGE = "Command_Record_Retention_Age"

	DEFAULT_QUOTE_API_STOCK_URL  = "http://finance.yahoo.com/webservice/v1/symbols/%s/quote"
	DEFAULT_QUOTE_API_RANGE_URL  = "http://query.yahooapis.com/v1/public/yql?q=select%%20*%%20from%%20yahoo.finance.quotes%%20where%%20symbol%%20in%%20(%s)&env=store://datatables.org/alltableswithkeys"
	DEFAULT_QUOTE_API_USER_AGENT = "Mozilla/5.0 (Linux; Android 6.0.1; SM-G920V Build/MMB29K) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/52.0.2743.98 Mobile Safari/537.36"
)

type Config struct {
	UrlAppName                  string
	UrlPathPrefix               string
	UrlBasePath                 string
	HttpShutdownTimeout         time.Duration
	Profile                     bool
	KafkaBrokers                []string
	KafkaBotRequestsTopic       string
	KafkaBotRequestsGroupID     string
	KafkaBotResponsesTopic      string
	KafkaBotResponsesGroupID    string
	KafkaBotResponsesBatchSize  int
	KafkaBotResponsesBatchBytes int
	KafkaUsername               string
	KafkaPassword               string
	KafkaSASLMechanism          string
	KafkaCA                     string
	ChatDatabaseHost            string
	ChatDatabasePort            int
	ChatDatabaseUser            string
	ChatDatabasePassword        string
	ChatDatabaseName            string
	ChatDatabaseSslMode         string
	ChatDatabaseSslRootCert     string
	ChatDatabaseQueryTimeout    time.Duration
	RedisAddress                string
	RedisPassword               string
	RedisDB                     int
	SessionTTL                  time.Duration
	SessionTokenSigningKey      string
	SessionTokenExpiry          time.Duration
	QuoteApiStockUrl            string
	QuoteApiRangeUrl            string
	QuoteApiUserAgent           string
	QuoteApiTimeout             time.Duration
	QuoteCacheSize              int
	QuoteCacheTTL               time.Duration
	CommandRecordRetentionAge   time.Duration
}

func (c Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", URL_PATH_PREFIX, c.UrlPathPrefix)
	fmt.Fprintf(&b, "%s: %s\n", URL_APP_NAME, c.UrlAppName)
	fmt.Fprintf(&b, "%s: %s\n", URL_BASE_PATH, c.UrlBasePath)
	fmt.Fprintf(&b, "%s: %s\n", HTTP_SHUTDOWN_TIMEOUT, c.HttpShutdownTimeout)
	fmt.Fprintf(&b, "%s: %t\n", PROFILE, c.Profile)
	fmt.Fprintf(&b, "%s: %s\n", BROKERS, c.KafkaBrokers)
	fmt.Fprintf(&b, "%s: %s\n", BOT_REQUESTS_TOPIC, c.KafkaBotRequestsTopic)
	fmt.Fprintf(&b, "%s: %s\n", BOT_REQUESTS_GROUP_ID, c.KafkaBotRequestsGroupID)
	fmt.Fprintf(&b, "%s: %s\n", BOT_RESPONSES_TOPIC, c.KafkaBotResponsesTopic)
	fmt.Fprintf(&b, "%s: %s\n", BOT_RESPONSES_GROUP_ID, c.KafkaBotResponsesGroupID)
	fmt.Fprintf(&b, "%s: %d\n", BOT_RESPONSES_BATCH_SIZE, c.KafkaBotResponsesBatchSize)
	fmt.Fprintf(&b, "%s: %d\n", BOT_RESPONSES_BATCH_BYTES, c.KafkaBotResponsesBatchBytes)
	fmt.Fprintf(&b, "%s: %s\n", CHAT_DATABASE_HOST, c.ChatDatabaseHost)
	fmt.Fprintf(&b, "%s: %d\n", CHAT_DATABASE_PORT, c.ChatDatabasePort)
	fmt.Fprintf(&b, "%s: %s\n", CHAT_DATABASE_NAME, c.ChatDatabaseName)
	fmt.Fprintf(&b, "%s: %s\n", CHAT_DATABASE_SSL_MODE, c.ChatDatabaseSslMode)
	fmt.Fprintf(&b, "%s: %s\n", CHAT_DATABASE_QUERY_TIMEOUT, c.ChatDatabaseQueryTimeout)
	fmt.Fprintf(&b, "%s: %s\n", REDIS_ADDRESS, c.RedisAddress)
	fmt.Fprintf(&b, "%s: %d\n", REDIS_DB, c.RedisDB)
	fmt.Fprintf(&b, "%s: %s\n", SESSION_TTL, c.SessionTTL)
	fmt.Fprintf(&b, "%s: %s\n", SESSION_TOKEN_EXPIRY, c.SessionTokenExpiry)
	fmt.Fprintf(&b, "%s: %s\n", QUOTE_API_STOCK_URL, c.QuoteApiStockUrl)
	fmt.Fprintf(&b, "%s: %s\n", QUOTE_API_RANGE_URL, c.QuoteApiRangeUrl)
	fmt.Fprintf(&b, "%s: %s\n", QUOTE_API_TIMEOUT, c.QuoteApiTimeout)
	fmt.Fprintf(&b, "%s: %d\n", QUOTE_CACHE_SIZE, c.QuoteCacheSize)
	fmt.Fprintf(&b, "%s: %s\n", QUOTE_CACHE_TTL, c.QuoteCacheTTL)
	fmt.Fprintf(&b, "%s: %s\n", COMMAND_RECORD_RETENTION_AGE, c.CommandRecordRetentionAge)

	return b.String()
}

func GetConfig() *Config {
	options := viper.New()

	options.SetDefault(URL_PATH_PREFIX, "api")
	options.SetDefault(URL_APP_NAME, "stock-chat")
	options.SetDefault(HTTP_SHUTDOWN_TIMEOUT, 2)
	options.SetDefault(PROFILE, false)
	options.SetDefault(BROKERS, []string{DEFAULT_BROKER_ADDRESS})
	options.SetDefault(BOT_REQUESTS_TOPIC, "bot_requests")
	options.SetDefault(BOT_REQUESTS_GROUP_ID, "stock-chat-bot-worker")
	options.SetDefault(BOT_RESPONSES_TOPIC, "bot_responses")
	options.SetDefault(BOT_RESPONSES_GROUP_ID, "stock-chat-response-receiver")
	options.SetDefault(BOT_RESPONSES_BATCH_SIZE, 100)
	options.SetDefault(BOT_RESPONSES_BATCH_BYTES, 1048576)
	options.SetDefault(KAFKA_USERNAME, "")
	options.SetDefault(KAFKA_PASSWORD, "")
	options.SetDefault(KAFKA_SASL_MECHANISM, "")
	options.SetDefault(KAFKA_CA, "")
	options.SetDefault(CHAT_DATABASE_HOST, "localhost")
	options.SetDefault(CHAT_DATABASE_PORT, 5432)
	options.SetDefault(CHAT_DATABASE_USER, "stock_chat")
	options.SetDefault(CHAT_DATABASE_PASSWORD, "stock_chat")
	options.SetDefault(CHAT_DATABASE_NAME, "stock-chat")
	options.SetDefault(CHAT_DATABASE_SSL_MODE, "disable")
	options.SetDefault(CHAT_DATABASE_SSL_ROOT_CERT, "db_ssl_root_cert.pem")
	options.SetDefault(CHAT_DATABASE_QUERY_TIMEOUT, 5)
	options.SetDefault(REDIS_ADDRESS, "localhost:6379")
	options.SetDefault(REDIS_PASSWORD, "")
	options.SetDefault(REDIS_DB, 0)
	options.SetDefault(SESSION_TTL, 300)
	options.SetDefault(SESSION_TOKEN_SIGNING_KEY, "")
	options.SetDefault(SESSION_TOKEN_EXPIRY, 86400)
	options.SetDefault(QUOTE_API_STOCK_URL, DEFAULT_QUOTE_API_STOCK_URL)
	options.SetDefault(QUOTE_API_RANGE_URL, DEFAULT_QUOTE_API_RANGE_URL)
	options.SetDefault(QUOTE_API_USER_AGENT, DEFAULT_QUOTE_API_USER_AGENT)
	options.SetDefault(QUOTE_API_TIMEOUT, 10)
	options.SetDefault(QUOTE_CACHE_SIZE, 1000)
	options.SetDefault(QUOTE_CACHE_TTL, 30)
	options.SetDefault(COMMAND_RECORD_RETENTION_AGE, 259200)

	options.SetEnvPrefix(ENV_PREFIX)
	options.AutomaticEnv()

	return &Config{
		UrlPathPrefix:               options.GetString(URL_PATH_PREFIX),
		UrlAppName:                  options.GetString(URL_APP_NAME),
		UrlBasePath:                 buildUrlBasePath(options.GetString(URL_PATH_PREFIX), options.GetString(URL_APP_NAME)),
		HttpShutdownTimeout:         options.GetDuration(HTTP_SHUTDOWN_TIMEOUT) * time.Second,
		Profile:                     options.GetBool(PROFILE),
		KafkaBrokers:                options.GetStringSlice(BROKERS),
		KafkaBotRequestsTopic:       options.GetString(BOT_REQUESTS_TOPIC),
		KafkaBotRequestsGroupID:     options.GetString(BOT_REQUESTS_GROUP_ID),
		KafkaBotResponsesTopic:      options.GetString(BOT_RESPONSES_TOPIC),
		KafkaBotResponsesGroupID:    options.GetString(BOT_RESPONSES_GROUP_ID),
		KafkaBotResponsesBatchSize:  options.GetInt(BOT_RESPONSES_BATCH_SIZE),
		KafkaBotResponsesBatchBytes: options.GetInt(BOT_RESPONSES_BATCH_BYTES),
		KafkaUsername:               options.GetString(KAFKA_USERNAME),
		KafkaPassword:               options.GetString(KAFKA_PASSWORD),
		KafkaSASLMechanism:          options.GetString(KAFKA_SASL_MECHANISM),
		KafkaCA:                     options.GetString(KAFKA_CA),
		ChatDatabaseHost:            options.GetString(CHAT_DATABASE_HOST),
		ChatDatabasePort:            options.GetInt(CHAT_DATABASE_PORT),
		ChatDatabaseUser:            options.GetString(CHAT_DATABASE_USER),
		ChatDatabasePassword:        options.GetString(CHAT_DATABASE_PASSWORD),
		ChatDatabaseName:            options.GetString(CHAT_DATABASE_NAME),
		ChatDatabaseSslMode:         options.GetString(CHAT_DATABASE_SSL_MODE),
		ChatDatabaseSslRootCert:     options.GetString(CHAT_DATABASE_SSL_ROOT_CERT),
		ChatDatabaseQueryTimeout:    options.GetDuration(CHAT_DATABASE_QUERY_TIMEOUT) * time.Second,
		RedisAddress:                options.GetString(REDIS_ADDRESS),
		RedisPassword:               options.GetString(REDIS_PASSWORD),
		RedisDB:                     options.GetInt(REDIS_DB),
		SessionTTL:                  options.GetDuration(SESSION_TTL) * time.Second,
		SessionTokenSigningKey:      options.GetString(SESSION_TOKEN_SIGNING_KEY),
		SessionTokenExpiry:          options.GetDuration(SESSION_TOKEN_EXPIRY) * time.Second,
		QuoteApiStockUrl:            options.GetString(QUOTE_API_STOCK_URL),
		QuoteApiRangeUrl:            options.GetString(QUOTE_API_RANGE_URL),
		QuoteApiUserAgent:           options.GetString(QUOTE_API_USER_AGENT),
		QuoteApiTimeout:             options.GetDuration(QUOTE_API_TIMEOUT) * time.Second,
		QuoteCacheSize:              options.GetInt(QUOTE_CACHE_SIZE),
		QuoteCacheTTL:               options.GetDuration(QUOTE_CACHE_TTL) * time.Second,
		CommandRecordRetentionAge:   options.GetDuration(COMMAND_RECORD_RETENTION_AGE) * time.Second,
	}
}

func buildUrlBasePath(pathPrefix string, appName string) string {
	return fmt.Sprintf("/%s/%s/v1", pathPrefix, appName)
}
