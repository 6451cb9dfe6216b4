package service

import (
	"context"
	"courtcert_backend/internal/config"
	"courtcert_backend/internal/matching"
	"courtcert_backend/internal/model"
	"courtcert_backend/internal/repository"
	"courtcert_backend/internal/util"
	"courtcert_backend/pkg/monitoring"
	"courtcert_backend/pkg/tracing"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

type MatchBasis string

const (
	BasisExactEmail  MatchBasis = "exact_email"
	BasisEmailPrefix MatchBasis = "email_prefix"
	BasisFuzzyName   MatchBasis = "fuzzy_name"
)

type ResolutionStatus string

const (
	// 唯一且高置信度，可直接绑定
	StatusAutoSelected ResolutionStatus = "auto_selected"
	// 同一邮箱命中多条，需要用户明确选择
	StatusNeedsDisambiguation ResolutionStatus = "needs_disambiguation"
	// 模糊匹配的建议，需要用户确认
	StatusSuggested ResolutionStatus = "suggested"
	StatusNoMatch   ResolutionStatus = "no_match"
)

const (
	confidenceExactEmail  = 1.0
	confidenceEmailPrefix = 0.95

	surnameWeight   = 0.6
	givenNameWeight = 0.4
	// 只输入姓氏时的折扣，使其无法单凭姓氏达到最高置信度
	surnameOnlyFactor = 0.9
	// 输入了名字但完全不匹配时的惩罚
	givenMismatchFactor = 0.6
	initialMatchScore   = 0.8
)

// AttorneyMatchCandidate 临时的匹配结果，不落库
type AttorneyMatchCandidate struct {
	Attorney   model.AttorneyRecord `json:"attorney"`
	Confidence float64              `json:"confidence"`
	Basis      MatchBasis           `json:"basis"`
}

type AttorneyResolution struct {
	Status     ResolutionStatus         `json:"status"`
	Candidates []AttorneyMatchCandidate `json:"candidates"`
}

// Selected 自动选中的律师，没有时返回 nil
func (r *AttorneyResolution) Selected() *model.AttorneyRecord {
	if r.Status != StatusAutoSelected || len(r.Candidates) == 0 {
		return nil
	}
	return &r.Candidates[0].Attorney
}

type AttorneyService struct {
	Repo   *repository.AttorneyRepository
	Config config.AttorneyConfig
}

func NewAttorneyService(repo *repository.AttorneyRepository, cfg config.AttorneyConfig) *AttorneyService {
	return &AttorneyService{Repo: repo, Config: cfg}
}

// Resolve 按 精确邮箱 → 邮箱前缀 → 姓名模糊匹配 的顺序查找律师。
// 找不到时返回空列表而不是错误
func (s *AttorneyService) Resolve(ctx context.Context, nameFragment, emailFragment string) (res *AttorneyResolution, err error) {
	ctx, span := tracing.Tracer.Start(ctx, "AttorneyService.Resolve")
	defer func() {
		if res != nil {
			monitoring.AttorneyResolutions.WithLabelValues(string(res.Status)).Inc()
		}
		tracing.End(span, err)
	}()

	email := strings.ToLower(strings.TrimSpace(emailFragment))
	if email != "" {
		res, err = s.resolveByEmail(ctx, email)
		if err != nil || res != nil {
			return res, err
		}
	}

	if tokens := matching.Tokens(nameFragment); len(tokens) > 0 {
		return s.resolveByName(ctx, tokens)
	}
	return &AttorneyResolution{Status: StatusNoMatch, Candidates: []AttorneyMatchCandidate{}}, nil
}

func (s *AttorneyService) resolveByEmail(ctx context.Context, email string) (*AttorneyResolution, error) {
	exact, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	switch {
	case len(exact) == 1:
		return &AttorneyResolution{
			Status:     StatusAutoSelected,
			Candidates: []AttorneyMatchCandidate{{Attorney: exact[0], Confidence: confidenceExactEmail, Basis: BasisExactEmail}},
		}, nil
	case len(exact) > 1:
		candidates := make([]AttorneyMatchCandidate, 0, len(exact))
		for _, a := range exact {
			candidates = append(candidates, AttorneyMatchCandidate{Attorney: a, Confidence: confidenceExactEmail, Basis: BasisExactEmail})
		}
		return &AttorneyResolution{Status: StatusNeedsDisambiguation, Candidates: candidates}, nil
	}

	if utf8.RuneCountInString(email) < s.Config.EmailPrefixMinLength {
		return nil, nil
	}
	prefixed, err := s.Repo.FindByEmailPrefix(ctx, email, 2)
	if err != nil {
		return nil, err
	}
	if len(prefixed) == 1 {
		return &AttorneyResolution{
			Status:     StatusAutoSelected,
			Candidates: []AttorneyMatchCandidate{{Attorney: prefixed[0], Confidence: confidenceEmailPrefix, Basis: BasisEmailPrefix}},
		}, nil
	}
	return nil, nil
}

func (s *AttorneyService) resolveByName(ctx context.Context, tokens []string) (*AttorneyResolution, error) {
	surname := tokens[len(tokens)-1]
	given := ""
	if len(tokens) > 1 {
		given = tokens[0]
	}

	// 预筛选条件与 matching.Similarity 一致，被过滤掉的姓氏相似度必然为 0
	pool, err := s.Repo.FindSurnameCandidates(ctx, matching.FilterFor(surname))
	if err != nil {
		return nil, err
	}

	candidates := make([]AttorneyMatchCandidate, 0)
	for _, a := range pool {
		score := scoreName(surname, given, a)
		if score < s.Config.MinScore {
			continue
		}
		candidates = append(candidates, AttorneyMatchCandidate{Attorney: a, Confidence: score, Basis: BasisFuzzyName})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].Attorney.ID < candidates[j].Attorney.ID
	})
	if max := s.Config.MaxCandidates; max > 0 && len(candidates) > max {
		candidates = candidates[:max]
	}

	if len(candidates) == 0 {
		return &AttorneyResolution{Status: StatusNoMatch, Candidates: candidates}, nil
	}

	high := 0
	for _, c := range candidates {
		if c.Confidence >= s.Config.AutoSelectScore {
			high++
		}
	}
	if high == 1 && candidates[0].Confidence >= s.Config.AutoSelectScore {
		return &AttorneyResolution{Status: StatusAutoSelected, Candidates: candidates[:1]}, nil
	}
	return &AttorneyResolution{Status: StatusSuggested, Candidates: candidates}, nil
}

// Import 由名录同步任务调用，批量写入律师记录
func (s *AttorneyService) Import(ctx context.Context, records []model.AttorneyRecord) (int, error) {
	for i := range records {
		if strings.TrimSpace(records[i].LastName) == "" {
			return 0, fmt.Errorf("%w: attorney %d has no last name", util.ErrInvalidInput, i)
		}
		records[i].ID = 0
	}
	if err := s.Repo.Create(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// 前缀输入时目录中的姓氏可以比输入长出的字符数

func scoreName(surname, given string, a model.AttorneyRecord) float64 {
	sur := matching.Similarity(surname, a.LastName)
	if sur == 0 {
		return 0
	}
	if given == "" {
		return sur * surnameOnlyFactor
	}

	g := matching.Similarity(given, a.FirstName)
	if g == 0 && utf8.RuneCountInString(given) == 1 {
		first := matching.Normalize(a.FirstName)
		if strings.HasPrefix(first, given) {
			g = initialMatchScore
		}
	}

	score := surnameWeight*sur + givenNameWeight*g
	if g == 0 {
		score *= givenMismatchFactor
	}
	return score
}
