package schema

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/markup"
	"github.com/vk/fieldgo/internal/xmldoc"
)

const validDoc = `<?xml version="1.0"?>
<Fieldml version="0.5" xmlns:xlink="http://www.w3.org/1999/xlink">
  <Region name="test">
    <Import xlink:href="library.xml" region="library">
      <ImportType localName="real.1d" remoteName="library.real.1d"/>
    </Import>
    <EnsembleType name="nodes">
      <Members>
        <MemberRange min="1" max="8"/>
      </Members>
    </EnsembleType>
    <ArgumentEvaluator name="nodes.argument" valueType="nodes"/>
    <PiecewiseEvaluator name="pw" valueType="real.1d">
      <IndexEvaluators>
        <IndexEvaluator evaluator="nodes.argument" indexNumber="1"/>
      </IndexEvaluators>
      <ElementEvaluators default="x"/>
    </PiecewiseEvaluator>
    <ParameterEvaluator name="p" valueType="real.1d">
      <DenseArrayData data="src">
        <DenseIndexes>
          <IndexEvaluator evaluator="nodes.argument"/>
        </DenseIndexes>
      </DenseArrayData>
    </ParameterEvaluator>
  </Region>
</Fieldml>`

func violations(t *testing.T, err error) []error {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, fmlerr.ErrSchemaValidation)
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr), "expected a multierror, got %T", err)
	return merr.Errors
}

func TestValidate_AcceptsWellFormedDocument(t *testing.T) {
	root, err := xmldoc.ParseString(validDoc, "valid.xml")
	require.NoError(t, err)

	assert.NoError(t, Validate(root))
}

func TestValidate_WrongRoot(t *testing.T) {
	errs := violations(t, Validate(markup.NewElement("Region", "name", "r")))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "root element must be Fieldml")
}

func TestValidate_RegionCount(t *testing.T) {
	root := markup.NewElement("Fieldml").Add(
		markup.NewElement("Region", "name", "a"),
		markup.NewElement("Region", "name", "b"),
	)
	errs := violations(t, Validate(root))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "exactly one Region, found 2")
}

func TestValidate_CollectsEveryViolation(t *testing.T) {
	root := markup.NewElement("Fieldml").Add(
		markup.NewElement("Region", "name", "r").Add(
			// Missing name.
			markup.NewElement("ContinuousType"),
			// Unknown attribute and a non-integer bound.
			markup.NewElement("EnsembleType", "name", "e", "colour", "red").Add(
				markup.NewElement("Members").Add(markup.NewElement("MemberRange", "min", "1", "max", "ten")),
			),
			// Unknown element.
			markup.NewElement("Widget"),
		),
	)

	errs := violations(t, Validate(root))
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	assert.Len(t, errs, 4)
	assert.Contains(t, msgs[0], `missing required attribute "name"`)
	assert.Contains(t, msgs[1], `unexpected attribute "colour"`)
	assert.Contains(t, msgs[2], `attribute "max" must be an integer`)
	assert.Contains(t, msgs[3], "Widget is not allowed inside Region")
}

func TestValidate_ContextualIndexEvaluator(t *testing.T) {
	root := markup.NewElement("Fieldml").Add(
		markup.NewElement("Region", "name", "r").Add(
			markup.NewElement("PiecewiseEvaluator", "name", "pw", "valueType", "t").Add(
				markup.NewElement("IndexEvaluators").Add(
					markup.NewElement("IndexEvaluator", "evaluator", "i"),
				),
				markup.NewElement("ElementEvaluators"),
			),
		),
	)

	errs := violations(t, Validate(root))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), `missing required attribute "indexNumber"`)
}

func TestValidate_ChoiceAndOnce(t *testing.T) {
	root := markup.NewElement("Fieldml").Add(
		markup.NewElement("Region", "name", "r").Add(
			markup.NewElement("EnsembleType", "name", "e").Add(
				markup.NewElement("Members"),
			),
			markup.NewElement("ContinuousType", "name", "c").Add(
				markup.NewElement("Components", "name", "c.k", "count", "2"),
				markup.NewElement("Components", "name", "c.j", "count", "2"),
			),
		),
	)

	errs := violations(t, Validate(root))
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "Members needs exactly one of MemberRange")
	assert.Contains(t, errs[1].Error(), "Components may appear only once inside ContinuousType")
}

func TestValidate_RequiredChildren(t *testing.T) {
	root := markup.NewElement("Fieldml").Add(
		markup.NewElement("Region", "name", "r").Add(
			markup.NewElement("EnsembleType", "name", "e"),
			markup.NewElement("PiecewiseEvaluator", "name", "pw", "valueType", "t"),
			markup.NewElement("AggregateEvaluator", "name", "agg", "valueType", "t"),
		),
	)

	errs := violations(t, Validate(root))
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0].Error(), "EnsembleType must contain Members")
	assert.Contains(t, errs[1].Error(), "PiecewiseEvaluator must contain ElementEvaluators")
	assert.Contains(t, errs[2].Error(), "AggregateEvaluator must contain ComponentEvaluators")
}

func TestValidate_TextOnlyWhereAllowed(t *testing.T) {
	root := markup.NewElement("Fieldml").Add(
		markup.NewElement("Region", "name", "r").Add(
			markup.NewElement("ContinuousType", "name", "c").WithText("stray"),
			markup.NewElement("TextInlineResource", "name", "inline").Add(
				markup.NewElement("TextString").WithText("1 2 3"),
			),
		),
	)

	errs := violations(t, Validate(root))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "unexpected text content")
}
