package commands

const (
	MsgAskEmpty       = "❗ يرجى كتابة سؤالك بعد الأمر، مثال: !ask ما هو التكامل؟"
	MsgIntentEmpty    = "❗ يرجى كتابة النص المراد تحليله بعد الأمر."
	MsgAIUnavailable  = "⚠️ عذراً، تعذر الحصول على إجابة من المساعد الذكي حالياً."
	MsgIntentFallback = "(تعذر فهم رد النموذج، تم استخدام النتيجة الافتراضية)"
	MsgNoLectures     = "📭 لا توجد محاضرات مطابقة."
	MsgWrongPassword  = "⛔ كلمة المرور غير صحيحة."
	MsgLoggedIn       = "✅ تم تسجيلك كمطور."
	MsgHelpHeader     = "📖 الأوامر المتاحة:"
)
