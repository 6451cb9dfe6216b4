package model

import "fmt"

// DisplayLabels 展示给学员的选项标签，下标即展示位置
var DisplayLabels = [OptionsPerQuestion]string{"A", "B", "C", "D"}

// LabelIndex 将展示标签转换为展示位置
func LabelIndex(label string) (int, bool) {
	for i, l := range DisplayLabels {
		if l == label {
			return i, true
		}
	}
	return -1, false
}

// PaperQuestion 试卷中的一道题。Options 按展示顺序排列，
// Order[display] = canonical 记录展示位置到题库原始位置的映射
type PaperQuestion struct {
	EntryID         uint                       `json:"entryId"`
	Text            string                     `json:"text"`
	Options         [OptionsPerQuestion]string `json:"options"`
	Order           [OptionsPerQuestion]int    `json:"order"`
	CorrectPosition int                        `json:"correctPosition"`
	Remediation     [OptionsPerQuestion]string `json:"remediation"`
}

// CanonicalOf 返回展示位置对应的题库原始位置
func (q PaperQuestion) CanonicalOf(display int) int {
	return q.Order[display]
}

// CorrectDisplay 返回正确答案当前的展示位置
func (q PaperQuestion) CorrectDisplay() int {
	for d, c := range q.Order {
		if c == q.CorrectPosition {
			return d
		}
	}
	return -1
}

// IsCorrect 判断学员选择的展示标签是否为正确答案
func (q PaperQuestion) IsCorrect(label string) bool {
	d, ok := LabelIndex(label)
	if !ok {
		return false
	}
	return q.Order[d] == q.CorrectPosition
}

// ExamPaper 一次考试尝试生成的试卷，内嵌题面与答案映射，评分时无需再查询题库
type ExamPaper struct {
	CourseID  uint            `json:"courseId"`
	Version   string          `json:"version"`
	Questions []PaperQuestion `json:"questions"`
}

func (p ExamPaper) Len() int {
	return len(p.Questions)
}

// Validate 检查每道题的展示顺序是否是原始选项的一个排列
func (p ExamPaper) Validate() error {
	for i, q := range p.Questions {
		var seen [OptionsPerQuestion]bool
		for _, c := range q.Order {
			if c < 0 || c >= OptionsPerQuestion || seen[c] {
				return fmt.Errorf("question %d: display order %v is not a permutation", i, q.Order)
			}
			seen[c] = true
		}
		if q.CorrectPosition < 0 || q.CorrectPosition >= OptionsPerQuestion {
			return fmt.Errorf("question %d: correct position %d out of range", i, q.CorrectPosition)
		}
	}
	return nil
}
