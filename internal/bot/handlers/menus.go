package handlers

import (
	"github.com/go-telegram/bot/models"
)

// Callback data identifiers for all inline keyboard buttons.
const (
	CallbackInterestCars   = "interest_cars"
	CallbackAnalyzeRegion  = "analyze_region"
	CallbackGetOffer       = "get_offer"
	CallbackAdminExport    = "admin_export"
	CallbackExportSummary  = "export_summary"
	CallbackExportDetailed = "export_detailed"
	CallbackInterestNew    = "interest_new"
	CallbackInterestUsed   = "interest_used"
	CallbackInterestElec   = "interest_electric"
	CallbackBackToMain     = "back_to_main"
)

// mainMenu builds the main inline keyboard. The admin export row is appended
// only for users on the admin allow-list.
func mainMenu(isAdmin bool) *models.InlineKeyboardMarkup {
	rows := [][]models.InlineKeyboardButton{
		{{Text: "🚗 I want to buy a car", CallbackData: CallbackInterestCars}},
		{{Text: "📊 Region market analysis", CallbackData: CallbackAnalyzeRegion}},
		{{Text: "📄 Get a commercial offer", CallbackData: CallbackGetOffer}},
	}
	if isAdmin {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: "🛠 Export client data", CallbackData: CallbackAdminExport},
		})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// carInterestMenu lists the car categories a user can pick from.
func carInterestMenu() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "🆕 New cars", CallbackData: CallbackInterestNew}},
			{{Text: "🔄 Used cars", CallbackData: CallbackInterestUsed}},
			{{Text: "⚡ Electric cars", CallbackData: CallbackInterestElec}},
			{{Text: "⬅️ Back", CallbackData: CallbackBackToMain}},
		},
	}
}

// exportMenu lists the report types available to administrators.
func exportMenu() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "📊 Summary report", CallbackData: CallbackExportSummary}},
			{{Text: "📋 Detailed report", CallbackData: CallbackExportDetailed}},
			{{Text: "⬅️ Back", CallbackData: CallbackBackToMain}},
		},
	}
}

// afterAnalysisMenu is attached to a finished region analysis summary.
func afterAnalysisMenu() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "📄 Get a commercial offer", CallbackData: CallbackGetOffer}},
			{{Text: "⬅️ Main menu", CallbackData: CallbackBackToMain}},
		},
	}
}

// interestDetails maps a car category callback to the text stored with the
// interest record.
func interestDetails(callbackData string) string {
	switch callbackData {
	case CallbackInterestNew:
		return "new cars"
	case CallbackInterestUsed:
		return "used cars"
	case CallbackInterestElec:
		return "electric cars"
	default:
		return callbackData
	}
}
