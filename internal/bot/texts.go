// Package bot implements the Telegram side of the assistant: registration,
// the subscription gate, the topic menu, and the free-question flow.
//
// All user-facing copy lives in this file. The audience is Uzbek-speaking,
// so the strings stay in Uzbek and use Telegram HTML parse mode.
package bot

import "fmt"

const (
	fallbackText = "Savolingiz uchun rahmat! 🙏\n\n" +
		"Hozircha bu mavzu bo'yicha avtomatik javob yo'q.\n\n" +
		"Quyidagilardan yordam olishingiz mumkin:\n\n" +
		"🏢 <b>Do'stlik tumani Davlat xizmatlari markazi</b>\n" +
		"📍 Do'stlik tumani, markaziy ko'cha\n" +
		"🕐 Ish vaqti: Du-Ju 9:00-18:00\n\n" +
		"Yoki yuqoridagi <b>tugmalardan birini</b> tanlang.\n\n" +
		"✅ Agar xohlasangiz, yana savol berishingiz mumkin"

	subscriptionRequiredText = "⚠️ <b>Botdan to'liq foydalanish uchun kanalimizga obuna bo'lishingiz shart!</b>\n\n" +
		"Pastdagi tugmani bosib kanalga kiring va obuna bo'ling, so'ngra \"Obuna bo'ldim\" tugmasini bosing."

	topicUnavailableText = "Bu mavzu hozircha mavjud emas. ⏳"

	askQuestionPrompt = "✍️ Savolingizni yozing, men javob beraman!\n" +
		"(Masalan: \"Bolalar nafaqasi uchun qanday hujjat kerak?\")"

	mainMenuText = "Asosiy menyu 👇"

	subscriptionConfirmedToast = "✅ Tasdiqlandi!"

	notSubscribedAlert = "❌ Siz hali kanalga obuna bo'lmadingiz! \n" +
		"Iltimos, avval obuna bo'ling va keyin qayta urinib ko'ring."
)

func welcomeText(fullName string) string {
	if fullName == "" {
		fullName = "do'st"
	}
	return fmt.Sprintf(
		"Assalomu alaykum, %s! 👋\n\n"+
			"Siz muvaffaqiyatli ro'yxatdan o'tdingiz!\n\n"+
			"Men <b>Do'stlik tumani AI Maslahatchisi</b>man.\n"+
			"🏡 Sizga davlat xizmatlari va ijtimoiy masalalarda yordam beraman.\n\n"+
			"👇 <b>Quyidagi tugmalardan birini tanlang yoki savolingizni yozing:</b>",
		fullName,
	)
}

func joinChannelText(fullName string) string {
	if fullName == "" {
		fullName = "do'st"
	}
	return fmt.Sprintf(
		"Assalomu alaykum, %s! 👋\n\n"+
			"Botdan foydalanish uchun kanalimizga obuna bo'lishingiz kerak:",
		fullName,
	)
}

func topicAnswerText(emoji, title, answer string) string {
	return fmt.Sprintf(
		"%s <b>%s</b>\n\n"+
			"%s\n\n"+
			"─────────────────────\n"+
			"✅ Agar xohlasangiz, yana savol berishingiz mumkin\n"+
			"✍️ Erkin savol uchun \"Savol berish\" tugmasini bosing",
		emoji, title, answer,
	)
}

func topicComingSoonText(emoji, title string) string {
	return fmt.Sprintf(
		"%s <b>%s</b>\n\n"+
			"Bu mavzu bo'yicha ma'lumot yaqinda qo'shiladi.\n"+
			"Hozircha tegishli idoraga murojaat qiling.\n\n"+
			"🏢 <b>Do'stlik tumani Davlat xizmatlari markazi:</b>\n"+
			"Do'stlik tumani, markaziy ko'cha\n\n"+
			"✅ Agar xohlasangiz, yana savol berishingiz mumkin",
		emoji, title,
	)
}
