package lectures

const (
	MsgChooseType         = "📚 اختر نوع الملف:"
	MsgEnterNumber        = "🔢 أرسل رقم المحاضرة:"
	MsgSendPDF            = "📎 أرسل ملف PDF الآن."
	MsgNotPDF             = "❗ الملف المرسل ليس PDF، أرسل ملف PDF أو !الغاء للإلغاء."
	MsgFileTooLarge       = "❗ حجم الملف أكبر من المسموح (64 ميغابايت)."
	MsgUploaded           = "✅ تم حفظ %s بنجاح:\n%s"
	MsgNotConfigured      = "⚠️ لم يتم إعداد البيانات بعد. القوائم الفارغة: %s"
	MsgNoLectures         = "📭 لا توجد محاضرات محفوظة بعد."
	MsgChooseLecture      = "📄 اختر الملف:"
	MsgNoMatchingLectures = "📭 لا توجد ملفات مطابقة لاختيارك."
	MsgFileUnavailable    = "⚠️ نسخة الملف غير متوفرة على الخادم."
)
