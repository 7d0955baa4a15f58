package admin

const (
	MsgMenu          = "🛠️ قائمة الإدارة:"
	MsgEnterPhone    = "📱 أرسل رقم الهاتف مع رمز الدولة (مثال: 966500000000+):"
	MsgInvalidPhone  = "❗ رقم الهاتف غير صالح، أرسل 8 إلى 15 رقماً."
	MsgEnterGroup    = "👥 أرسل معرف المجموعة:"
	MsgInvalidGroup  = "❗ معرف المجموعة غير صالح."
	MsgChooseKind    = "اختر القائمة المراد إدارتها:"
	MsgChooseLecture = "اختر المحاضرة المراد حذفها:"
	MsgNoLectures    = "📭 لا توجد محاضرات محفوظة."
	MsgConfirmDelete = "⚠️ هل أنت متأكد من حذف المحاضرة؟"
	MsgExportCaption = "📄 جدول المحاضرات (%d)"
	MsgBlacklistMenu = "🚫 القائمة السوداء:"
)

const (
	MsgMemberAdded    = "✅ تمت إضافة %s إلى المجموعة."
	MsgMemberRemoved  = "✅ تمت إزالة %s من المجموعة."
	MsgMemberPromoted = "✅ تمت ترقية %s إلى مشرف."
	MsgMemberDemoted  = "✅ تمت إزالة إشراف %s."
	MsgLectureDeleted = "🗑️ تم حذف: %s"
	MsgLectureGone    = "⚠️ المحاضرة لم تعد موجودة."
	MsgBlacklistEmpty = "✅ القائمة السوداء فارغة."
	MsgBlacklisted    = "🚫 تمت إضافة %s إلى القائمة السوداء."
	MsgUnblacklisted  = "✅ تمت إزالة %s من القائمة السوداء."
	MsgNotBlacklisted = "ℹ️ الرقم %s ليس في القائمة السوداء."
)
