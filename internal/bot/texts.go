package bot

// Menu labels. Reply-keyboard presses arrive as text messages carrying the
// label verbatim, so matching is case- and text-exact.
const (
	CmdStart     = "/start"
	LabelGallery = "Wallpapers"
	LabelVIP     = "VIP access"
	LabelInfo    = "Info"
	LabelAdmin   = "Admin"
	LabelUpload  = "Upload wallpapers"
	LabelExit    = "Exit admin panel"
)

// User-facing texts. Every failure the user can see is one of these crafted
// messages; raw errors never leave the service.
const (
	textGreeting = "👋 Hi! This is the Wallpaper Master bot — plenty of beautiful wallpapers! 🎨"
	textNoPapers = "😕 No wallpapers available yet."
	textVIPInfo  = "💎 VIP access unlocks all wallpapers!\n\n" +
		"🪙 23 ₽ / month\n" +
		"💰 1000 ₽ forever\n\n" +
		"Purchases are manual for now — message the admin."
	textInfo = "📲 This bot distributes wallpapers. The admin can upload wallpapers right in the chat and choose: everyone or VIP only."

	textSecretPrompt  = "Enter the admin password:"
	textSecretOK      = "✅ Access granted."
	textSecretWrong   = "❌ Wrong password."
	textAdminWelcome  = "🔐 Welcome to the admin panel."
	textOperatorsOnly = "⛔ Admins only."
	textPhotoPrompt   = "📸 Send the photo to upload (in a single message)."
	textSavedAll      = "✅ Photo saved for category: EVERYONE"
	textSavedVIP      = "✅ Photo saved for category: VIP"
	textAdminExit     = "🔙 You left the admin panel."
	textSendFailed    = "⚠️ Something went wrong, try again later."
)
