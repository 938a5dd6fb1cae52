package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden          ErrCode = "FORBIDDEN"
	ErrNotWorksheetAuthor ErrCode = "NOT_WORKSHEET_AUTHOR"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Session-specific ──────────────────────────────────────────────
	ErrSessionNotFound  ErrCode = "SESSION_NOT_FOUND"
	ErrQuestionNotFound ErrCode = "QUESTION_NOT_FOUND"
	ErrNotOpenEnded     ErrCode = "NOT_OPEN_ENDED"
	ErrEmptyAnswer      ErrCode = "EMPTY_ANSWER"
	ErrEvaluationBusy   ErrCode = "EVALUATION_IN_FLIGHT"
	ErrBonusBusy        ErrCode = "BONUS_IN_FLIGHT"
	ErrNoTotalTime      ErrCode = "NO_TOTAL_TIME"
	ErrTimerAlreadyRuns ErrCode = "TIMER_ALREADY_STARTED"
	ErrImageBusy        ErrCode = "IMAGE_IN_FLIGHT"

	// ─── Generation ────────────────────────────────────────────────────
	ErrGenerationFailed ErrCode = "GENERATION_FAILED"
	ErrEvaluationFailed ErrCode = "EVALUATION_FAILED"
	ErrSpeechFailed     ErrCode = "SPEECH_FAILED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "البريد الإلكتروني أو كلمة المرور غير صحيحة."
	case ErrTokenRequired:
		return "رمز المصادقة مطلوب."
	case ErrTokenInvalid:
		return "رمز المصادقة غير صالح."
	case ErrTokenExpired:
		return "انتهت صلاحية رمز المصادقة."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "ليست لديك صلاحية الوصول إلى هذا المورد."
	case ErrNotWorksheetAuthor:
		return "لست صاحب ورقة العمل هذه."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "فشل التحقق من البيانات. يرجى مراجعة المدخلات."
	case ErrInvalidID:
		return "صيغة المعرف غير صالحة."
	case ErrInvalidPayload:
		return "محتوى الطلب غير صالح."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "المورد غير موجود."
	case ErrConflict:
		return "المورد موجود مسبقاً."

	// ─── Session-specific ──────────────────────────────────────────────
	case ErrSessionNotFound:
		return "الجلسة غير موجودة أو انتهت."
	case ErrQuestionNotFound:
		return "السؤال غير موجود."
	case ErrNotOpenEnded:
		return "هذا الإجراء متاح للأسئلة المفتوحة فقط."
	case ErrEmptyAnswer:
		return "الرجاء كتابة إجابة أولاً."
	case ErrEvaluationBusy:
		return "يجري تقييم هذا السؤال حالياً."
	case ErrBonusBusy:
		return "يجري توليد أسئلة إضافية حالياً."
	case ErrNoTotalTime:
		return "لم يُحدد وقت كلي لورقة العمل."
	case ErrTimerAlreadyRuns:
		return "المؤقت العام يعمل بالفعل."
	case ErrImageBusy:
		return "يجري توليد صورة حالياً."

	// ─── Generation ────────────────────────────────────────────────────
	case ErrGenerationFailed:
		return "تعذر توليد المحتوى. حاول مرة أخرى."
	case ErrEvaluationFailed:
		return "تعذر تقييم الإجابة. حاول مرة أخرى."
	case ErrSpeechFailed:
		return "تعذر توليد القراءة الصوتية."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "طلبات كثيرة جداً. حاول مرة أخرى لاحقاً."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "حدث خطأ داخلي في الخادم."
	default:
		return "حدث خطأ غير متوقع."
	}
}
