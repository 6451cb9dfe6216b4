package util

import "errors"

var (
	// 题库不足以组卷等配置问题，不可由用户重试
	ErrConfiguration = errors.New("exam configuration error")
	// 课时未完成或未购买课程
	ErrNotEligible = errors.New("learner is not eligible for the exam")
	// 非法的作答提交（未知题号或标签），不会修改考试状态
	ErrInvalidSubmission = errors.New("invalid answer submission")
	ErrAttemptNotFound   = errors.New("attempt not found")
	ErrAttemptIncomplete = errors.New("attempt has unanswered questions")

	ErrResultNotFound      = errors.New("exam result not found")
	ErrExamNotPassed       = errors.New("exam result is not a pass")
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrCertificateExpired  = errors.New("certificate download window has expired")
	// 证书编号多次生成仍冲突，属于致命配置错误
	ErrIdentifierExhausted = errors.New("certificate identifier generation exhausted")

	ErrInvalidInput     = errors.New("invalid input")
	ErrLearnerNotFound  = errors.New("learner not found")
	ErrAttorneyNotFound = errors.New("attorney not found")
)
