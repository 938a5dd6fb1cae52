// Package prompts builds the Arabic prompt text sent to the generative
// collaborator. Every builder returns a complete prompt that instructs the
// model to reply with JSON only.
package prompts

import (
	"fmt"
	"strings"

	"github.com/waraqati/waraqa-backend/internal/model"
)

// Worksheet builds the main generation prompt: tiered comprehension
// questions derived strictly from the given passage.
func Worksheet(req model.GenerateWorksheetRequest) string {
	var sb strings.Builder
	sb.WriteString("أنت خبير لغة عربية ومصمم تقييمات مدرسية للمراحل العليا. مهمتك توليد أسئلة عالية الجودة من النص المعطى فقط دون اختلاق معلومات.\n\n")
	sb.WriteString("المدخلات:\n")
	sb.WriteString("- الصف الدراسي: " + req.Grade + "\n")
	sb.WriteString("- نوع النص: " + req.TextType + "\n")
	sb.WriteString("- المهارة المستهدفة: " + req.Skill + "\n")
	sb.WriteString("- الهدف التعليمي: " + req.Objective + "\n")
	sb.WriteString("- معايير النجاح:\n" + req.Criteria + "\n")
	sb.WriteString("- عدد الأسئلة المطلوبة:\n")
	sb.WriteString(fmt.Sprintf("  - أقل من التوقعات: %d\n", req.CountBelow))
	sb.WriteString(fmt.Sprintf("  - ضمن التوقعات: %d\n", req.CountWithin))
	sb.WriteString(fmt.Sprintf("  - فوق التوقعات: %d\n", req.CountAbove))
	sb.WriteString("\nالنص:\n" + req.Passage + "\n\n")
	sb.WriteString("القواعد الذهبية لتصميم الأسئلة:\n")
	sb.WriteString("1. منع الأسئلة المغلقة \"هل\".\n")
	sb.WriteString("2. استخدام منهجية تفكيك النص (حلل، استنبط، قيم).\n")
	sb.WriteString("3. التنويع بين المقالي والاختيار من متعدد.\n\n")
	sb.WriteString("يجب أن يكون المخرج بصيغة JSON حصراً بهذا الهيكل:\n")
	sb.WriteString(`{
  "meta": { "title": "عنوان النص", "grade": "...", "text_type": "...", "skill": "...", "objective": "...", "criteria": ["قائمة معايير النجاح"] },
  "below": [ { "type": "تحليل", "question": "...", "answer": "...", "evidence": "...", "success_criteria": "1", "options": [] } ],
  "within": [ { "type": "تحليل", "question": "...", "answer": "...", "evidence": "...", "success_criteria": "2", "options": [] } ],
  "above": [ { "type": "تحليل", "question": "...", "answer": "...", "evidence": "...", "success_criteria": "3", "options": [] } ],
  "rubric": [ { "category": "المعيار", "levels": [ { "name": "متميز", "description": "..." } ] } ]
}`)
	return sb.String()
}

// Evaluation builds the open-ended answer grading prompt. The model is asked
// for feedback plus a score in {0, 1, 2}.
func Evaluation(question, modelAnswer, studentAnswer, criteria string) string {
	var sb strings.Builder
	sb.WriteString("أنت معلم لغة عربية خبير. قم بتقييم إجابة الطالب التالية بناءً على السؤال، الإجابة النموذجية، ومعايير النجاح.\n\n")
	sb.WriteString("السؤال: " + question + "\n")
	sb.WriteString("الإجابة النموذجية: " + modelAnswer + "\n")
	sb.WriteString("إجابة الطالب: " + studentAnswer + "\n")
	sb.WriteString("معايير النجاح: " + criteria + "\n\n")
	sb.WriteString("المطلوب:\n")
	sb.WriteString("1. تقديم تغذية راجعة بناءة وموجزة باللغة العربية (ما أحسن فيه وما يحتاج لتطويره).\n")
	sb.WriteString("2. تحديد الدرجة المستحقة (0 إذا كانت خاطئة تماماً، 1 إذا كانت ناقصة، 2 إذا كانت وافية).\n\n")
	sb.WriteString("أخرج النتيجة كـ JSON:\n")
	sb.WriteString(`{ "feedback": "نص التغذية الراجعة هنا...", "score": 2 }`)
	return sb.String()
}

// VisualIdeas builds the prompt extracting 5–8 visual scene ideas from the
// passage. The reply is a JSON object so it survives strict JSON mode.
func VisualIdeas(passage string) string {
	var sb strings.Builder
	sb.WriteString("حلل النص التالي واستخرج منه ما لا يقل عن 5 أفكار بصرية محورية (ويمكن أن تصل لـ 8) تعبر عن المشاهد أو المفاهيم العميقة في النص.\n")
	sb.WriteString("أعطني فقط وصفاً فنياً مركزاً لكل فكرة باللغة العربية.\n")
	sb.WriteString("النص: " + passage + "\n")
	sb.WriteString(`أخرج النتيجة كـ JSON حصراً بهذا الهيكل: { "ideas": ["فكرة 1", "فكرة 2", "فكرة 3", "فكرة 4", "فكرة 5"] }`)
	return sb.String()
}

// Bonus builds the prompt generating extra questions at one cognitive level
// of Bloom's taxonomy.
func Bonus(passage, level, grade string, count int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("بناءً على النص، ولد عدد (%d) أسئلة تحليلية مبتكرة لمستوى \"%s\" من هرم بلوم للصف %s.\n", count, level, grade))
	sb.WriteString("يجب أن تكون الأسئلة باللغة العربية الفصحى وتعكس المستوى المطلوب بدقة.\n\n")
	sb.WriteString("النص:\n" + passage + "\n\n")
	sb.WriteString("أخرج النتيجة كـ JSON حصراً بهذا الهيكل:\n")
	sb.WriteString(fmt.Sprintf(`{ "questions": [ { "type": "%s", "question": "...", "answer": "...", "evidence": "...", "success_criteria": "1" } ] }`, level))
	return sb.String()
}

// Image builds the English art-direction prompt for one visual idea.
func Image(idea string) string {
	return fmt.Sprintf("A cinematic educational illustration representing this idea: %s. High quality, photorealistic or high-end digital art, clean, professional composition for a high school worksheet.", idea)
}

// ReadAloud wraps the passage for text-to-speech synthesis.
func ReadAloud(passage string) string {
	return "اقرأ النص التالي: " + passage
}
