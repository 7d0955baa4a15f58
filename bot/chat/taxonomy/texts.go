package taxonomy

const (
	MsgMenu         = "⚙️ إدارة %s:"
	MsgEnterName    = "✏️ أرسل اسم %s:"
	MsgAdded        = "✅ تمت إضافة %s: %s"
	MsgDeleted      = "🗑️ تم حذف %s: %s"
	MsgChooseDelete = "اختر %s المراد حذفه:"
	MsgEmpty        = "📭 لا توجد عناصر في %s."
)
