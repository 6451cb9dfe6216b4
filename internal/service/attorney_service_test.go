package service

import (
	"context"
	"courtcert_backend/internal/model"
	"courtcert_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDirectory(t *testing.T, f *fixture) []model.AttorneyRecord {
	t.Helper()
	records := []model.AttorneyRecord{
		{FirstName: "Maria", LastName: "Gonzalez", Firm: "Gonzalez Family Law", Email: "maria.gonzalez@gfl.com", City: "Oakland", State: "CA"},
		{FirstName: "Luis", LastName: "Gonzales", Firm: "Gonzales & Co", Email: "luis@gonzalesco.com", City: "Fresno", State: "CA"},
		{FirstName: "Tom", LastName: "Baker", Firm: "Baker Legal", Email: "intake@sharedfirm.com", City: "Reno", State: "NV"},
		{FirstName: "Tina", LastName: "Baker", Firm: "Baker Legal", Email: "Intake@SharedFirm.com", City: "Reno", State: "NV"},
		{FirstName: "Jonathan", LastName: "Whitfield", Firm: "Whitfield LLP", Email: "jwhitfield@whitfieldllp.com", City: "Austin", State: "TX"},
		{FirstName: "Jonas", LastName: "Whitford", Firm: "Whitford PC", Email: "jonas@whitfordpc.com", City: "Dallas", State: "TX"},
	}
	n, err := f.attorney.Import(context.Background(), records)
	require.NoError(t, err)
	require.Equal(t, len(records), n)
	return records
}

func TestResolveExactEmail(t *testing.T) {
	f := newFixture(t)
	dir := seedDirectory(t, f)

	res, err := f.attorney.Resolve(context.Background(), "", "  JWhitfield@WhitfieldLLP.com ")
	require.NoError(t, err)
	assert.Equal(t, StatusAutoSelected, res.Status)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, dir[4].ID, res.Candidates[0].Attorney.ID)
	assert.Equal(t, 1.0, res.Candidates[0].Confidence)
	assert.Equal(t, BasisExactEmail, res.Candidates[0].Basis)
	require.NotNil(t, res.Selected())
	assert.Equal(t, "Whitfield", res.Selected().LastName)
}

func TestResolveSharedEmailNeedsDisambiguation(t *testing.T) {
	f := newFixture(t)
	seedDirectory(t, f)

	res, err := f.attorney.Resolve(context.Background(), "Baker", "intake@sharedfirm.com")
	require.NoError(t, err)
	assert.Equal(t, StatusNeedsDisambiguation, res.Status)
	require.Len(t, res.Candidates, 2)
	for _, c := range res.Candidates {
		assert.Equal(t, 1.0, c.Confidence)
		assert.Equal(t, "Baker", c.Attorney.LastName)
	}
	assert.Nil(t, res.Selected())
}

func TestResolveEmailPrefix(t *testing.T) {
	f := newFixture(t)
	dir := seedDirectory(t, f)

	res, err := f.attorney.Resolve(context.Background(), "", "jwhitfield@")
	require.NoError(t, err)
	assert.Equal(t, StatusAutoSelected, res.Status)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, dir[4].ID, res.Candidates[0].Attorney.ID)
	assert.Equal(t, confidenceEmailPrefix, res.Candidates[0].Confidence)
	assert.Equal(t, BasisEmailPrefix, res.Candidates[0].Basis)

	// 前缀太短不做前缀匹配
	res, err = f.attorney.Resolve(context.Background(), "", "jwhit")
	require.NoError(t, err)
	assert.Equal(t, StatusNoMatch, res.Status)

	// 前缀命中多条时退回到姓名匹配
	res, err = f.attorney.Resolve(context.Background(), "", "intake@shared")
	require.NoError(t, err)
	assert.Equal(t, StatusNoMatch, res.Status)
}

func TestResolveMisspelledSurname(t *testing.T) {
	f := newFixture(t)
	seedDirectory(t, f)

	res, err := f.attorney.Resolve(context.Background(), "Gonzlez", "")
	require.NoError(t, err)
	assert.Equal(t, StatusSuggested, res.Status)
	require.NotEmpty(t, res.Candidates)

	top := res.Candidates[0]
	assert.Equal(t, "Gonzalez", top.Attorney.LastName)
	assert.Equal(t, BasisFuzzyName, top.Basis)
	assert.Greater(t, top.Confidence, 0.0)
	assert.Less(t, top.Confidence, 1.0)
	assert.Nil(t, res.Selected())
}

func TestResolveFullNameAutoSelects(t *testing.T) {
	f := newFixture(t)
	seedDirectory(t, f)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "full name", input: "Maria Gonzalez", want: "Maria"},
		{name: "initial", input: "M. Gonzalez", want: "Maria"},
		{name: "case and spacing", input: "  jonathan   WHITFIELD ", want: "Jonathan"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := f.attorney.Resolve(context.Background(), tc.input, "")
			require.NoError(t, err)
			assert.Equal(t, StatusAutoSelected, res.Status)
			require.Len(t, res.Candidates, 1)
			assert.Equal(t, tc.want, res.Candidates[0].Attorney.FirstName)
		})
	}
}

func TestResolveSurnameOnlyNeverAutoSelectsTies(t *testing.T) {
	f := newFixture(t)
	seedDirectory(t, f)

	res, err := f.attorney.Resolve(context.Background(), "Baker", "")
	require.NoError(t, err)
	assert.Equal(t, StatusSuggested, res.Status)
	assert.Len(t, res.Candidates, 2)
}

func TestResolveGivenNameMismatchPenalized(t *testing.T) {
	f := newFixture(t)
	seedDirectory(t, f)

	res, err := f.attorney.Resolve(context.Background(), "Maria Whitfield", "")
	require.NoError(t, err)
	for _, c := range res.Candidates {
		assert.Less(t, c.Confidence, f.attorney.Config.AutoSelectScore)
	}
	assert.NotEqual(t, StatusAutoSelected, res.Status)
}

func TestResolveNoMatchReturnsEmptyList(t *testing.T) {
	f := newFixture(t)
	seedDirectory(t, f)

	res, err := f.attorney.Resolve(context.Background(), "Zzyzx", "nobody@nowhere.org")
	require.NoError(t, err)
	assert.Equal(t, StatusNoMatch, res.Status)
	assert.NotNil(t, res.Candidates)
	assert.Empty(t, res.Candidates)

	res, err = f.attorney.Resolve(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, StatusNoMatch, res.Status)
}

func TestResolveLikeWildcardsAreLiteral(t *testing.T) {
	f := newFixture(t)
	seedDirectory(t, f)

	res, err := f.attorney.Resolve(context.Background(), "", "%%%%%%%%")
	require.NoError(t, err)
	assert.Equal(t, StatusNoMatch, res.Status)

	res, err = f.attorney.Resolve(context.Background(), "", "________")
	require.NoError(t, err)
	assert.Equal(t, StatusNoMatch, res.Status)
}

func TestImportRequiresSurname(t *testing.T) {
	f := newFixture(t)

	_, err := f.attorney.Import(context.Background(), []model.AttorneyRecord{{FirstName: "Cher"}})
	assert.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestResolveTypedSurnameLongerThanDirectory(t *testing.T) {
	f := newFixture(t)
	_, err := f.attorney.Import(context.Background(), []model.AttorneyRecord{
		{FirstName: "Jane", LastName: "Smith", Email: "jane@smithlaw.com"},
	})
	require.NoError(t, err)

	res, err := f.attorney.Resolve(context.Background(), "Jane Smithson", "")
	require.NoError(t, err)
	assert.Equal(t, StatusAutoSelected, res.Status)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "Smith", res.Candidates[0].Attorney.LastName)
	assert.Less(t, res.Candidates[0].Confidence, 1.0)
}

func TestResolveSurnamePrefixFindsLongerNames(t *testing.T) {
	f := newFixture(t)
	seedDirectory(t, f)

	res, err := f.attorney.Resolve(context.Background(), "Gonz", "")
	require.NoError(t, err)
	assert.Equal(t, StatusSuggested, res.Status)
	require.Len(t, res.Candidates, 2)
	for _, c := range res.Candidates {
		assert.Contains(t, c.Attorney.LastName, "Gonz")
	}
}
