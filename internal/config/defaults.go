package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for optional configuration parameters.
const (
	DefaultLogLevel = "info"

	DefaultGeminiModel       = "gemini-2.0-flash"
	DefaultGeminiTemperature = 0.3
	DefaultGeminiMaxTokens   = 1024
	DefaultGeminiTimeout     = 2 * time.Minute
	DefaultGeminiMaxRetries  = 2
	DefaultGeminiRetryDelay  = 5 // seconds

	DefaultDBPath      = "sales_bot.db"
	DefaultOfferDir    = "offers"
	DefaultExportDir   = "exports"
	DefaultCacheTTL    = 6 * time.Hour
	DefaultMetricsAddr = ":9090"
	DefaultMetricsNS   = "salesbot"
)

// DefaultMessages holds the fixed user-visible texts sent by the bot.
var DefaultMessages = Messages{
	Welcome:          "Welcome, %s!\n\nI can help you buy a car and provide market analytics for your region.",
	ChooseOption:     "Please choose an option from the menu:",
	CarInterest:      "Great! Which cars are you interested in?",
	InterestLogged:   "Noted! Would you like a personalized commercial offer?",
	RegionPrompt:     "🔍 Enter the name of your region for analysis:\n\nFor example:\n• Moscow\n• Saint Petersburg\n• Krasnodar Krai\n• Novosibirsk Oblast",
	RegionAnalyzing:  "🔍 Analyzing region %s...\nThis will take a few seconds.",
	RegionFailed:     "❌ Could not analyze region %s.\nTry again later or refine the region name.",
	OfferAlreadySent: "📫 You have already received our commercial offer.\n\nFor an updated offer or a consultation, contact our manager: @car_sales_manager",
	OfferCaption:     "🚗 Your commercial offer for cars\n\nThe offer takes your interests and preferences into account. Our manager will contact you to discuss the details!",
	OfferConfirmed:   "✅ Commercial offer sent!\n\nOur manager will contact you within 24 hours to clarify details and answer questions.",
	OfferFailed:      "❌ Sorry, an error occurred while sending the offer. Please try again later.",
	ExportMenu:       "📊 Choose the export type:",
	ExportRunning:    "🔄 Generating the report... This may take a few minutes.",
	ExportCaption:    "📊 Client report\nGenerated: %s",
	ExportFailed:     "❌ An error occurred while exporting data.",
	NotAuthorized:    "🚫 Access denied. Please contact the administrator.",
	GeneralError:     "❌ An error occurred. Please try again later.",
}

// setDefaults registers default values with viper before the config file
// and environment variables are applied on top.
func setDefaults() {
	viper.SetDefault("log.level", DefaultLogLevel)
	viper.SetDefault("log.json", false)

	viper.SetDefault("gemini.model", DefaultGeminiModel)
	viper.SetDefault("gemini.temperature", DefaultGeminiTemperature)
	viper.SetDefault("gemini.max_tokens", DefaultGeminiMaxTokens)
	viper.SetDefault("gemini.timeout", DefaultGeminiTimeout)
	viper.SetDefault("gemini.max_retries", DefaultGeminiMaxRetries)
	viper.SetDefault("gemini.retry_delay_seconds", DefaultGeminiRetryDelay)

	viper.SetDefault("database.path", DefaultDBPath)
	viper.SetDefault("offer.output_dir", DefaultOfferDir)
	viper.SetDefault("export.dir", DefaultExportDir)

	viper.SetDefault("cache.addr", "")
	viper.SetDefault("cache.db", 0)
	viper.SetDefault("cache.ttl", DefaultCacheTTL)

	viper.SetDefault("metrics.addr", DefaultMetricsAddr)
	viper.SetDefault("metrics.namespace", DefaultMetricsNS)

	viper.SetDefault("telegram.messages.welcome", DefaultMessages.Welcome)
	viper.SetDefault("telegram.messages.choose_option", DefaultMessages.ChooseOption)
	viper.SetDefault("telegram.messages.car_interest", DefaultMessages.CarInterest)
	viper.SetDefault("telegram.messages.interest_logged", DefaultMessages.InterestLogged)
	viper.SetDefault("telegram.messages.region_prompt", DefaultMessages.RegionPrompt)
	viper.SetDefault("telegram.messages.region_analyzing", DefaultMessages.RegionAnalyzing)
	viper.SetDefault("telegram.messages.region_failed", DefaultMessages.RegionFailed)
	viper.SetDefault("telegram.messages.offer_already_sent", DefaultMessages.OfferAlreadySent)
	viper.SetDefault("telegram.messages.offer_caption", DefaultMessages.OfferCaption)
	viper.SetDefault("telegram.messages.offer_confirmed", DefaultMessages.OfferConfirmed)
	viper.SetDefault("telegram.messages.offer_failed", DefaultMessages.OfferFailed)
	viper.SetDefault("telegram.messages.export_menu", DefaultMessages.ExportMenu)
	viper.SetDefault("telegram.messages.export_running", DefaultMessages.ExportRunning)
	viper.SetDefault("telegram.messages.export_caption", DefaultMessages.ExportCaption)
	viper.SetDefault("telegram.messages.export_failed", DefaultMessages.ExportFailed)
	viper.SetDefault("telegram.messages.not_authorized", DefaultMessages.NotAuthorized)
	viper.SetDefault("telegram.messages.general_error", DefaultMessages.GeneralError)
}
