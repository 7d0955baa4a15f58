package chat

// CancelKeywords abort the active workflow from any step.
var CancelKeywords = []string{"!الغاء", "الغاء", "!إلغاء", "إلغاء", "!cancel", "cancel"}

const (
	MsgChooseNumber   = "أرسل رقم الخيار، أو !الغاء للإلغاء."
	MsgInvalidChoice  = "❗ اختيار غير صالح، أرسل رقماً من القائمة."
	MsgEmptyText      = "❗ لم يتم استلام أي نص، حاول مرة أخرى."
	MsgCancelled      = "❌ تم إلغاء العملية."
	MsgSessionExpired = "⏰ انتهت مهلة العملية السابقة بسبب عدم النشاط. أرسل الأمر من جديد."
	MsgFailure        = "⚠️ عذراً، حدث خطأ أثناء تنفيذ طلبك. حاول مرة أخرى لاحقاً."
	MsgNotAllowed     = "⛔ ليس لديك صلاحية لاستخدام هذا الأمر."
)

const (
	MsgNothingToShow = "لا توجد عناصر متاحة حالياً."
	MsgInvalidValue  = "❗ القيمة غير صالحة، حاول مرة أخرى."
	MsgWrongFile     = "❗ يرجى إرسال ملف بالصيغة المطلوبة."
)
