package naming

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Separator joins the elements of a hierarchical name.
const Separator = "."

// ErrInvalidName is wrapped by every name validation failure.
var ErrInvalidName = errors.New("invalid name")

// A Name is a hierarchical name that includes a series of tokens separated
// by dots, for example "MM1.Server[0]".
type Name struct {
	Tokens []NameToken
}

// NameToken is a token of a name.
type NameToken struct {
	ElemName string
	Index    []int
}

// String rebuilds the name from its tokens.
func (n Name) String() string {
	parts := make([]string, len(n.Tokens))
	for i, t := range n.Tokens {
		parts[i] = BuildNameWithMultiDimensionalIndex("", t.ElemName, t.Index)
	}

	return strings.Join(parts, Separator)
}

// ParseName parses a name string.
func ParseName(sname string) (Name, error) {
	tokens := strings.Split(sname, Separator)
	name := Name{Tokens: make([]NameToken, len(tokens))}

	for i, token := range tokens {
		t, err := parseNameToken(token)
		if err != nil {
			return Name{}, fmt.Errorf("%w %q: %v", ErrInvalidName, sname, err)
		}

		name.Tokens[i] = t
	}

	return name, nil
}

func parseNameToken(token string) (NameToken, error) {
	if err := bracketsMustMatch(token); err != nil {
		return NameToken{}, err
	}

	ts := strings.Split(token, "[")
	elemName := ts[0]

	indices := make([]int, len(ts)-1)
	for i := 1; i < len(ts); i++ {
		if !strings.HasSuffix(ts[i], "]") {
			return NameToken{}, errors.New("index must end with ]")
		}

		index, err := strconv.Atoi(ts[i][0 : len(ts[i])-1])
		if err != nil {
			return NameToken{}, errors.New("index must be an integer")
		}

		indices[i-1] = index
	}

	if err := elemNameMustBeValid(elemName); err != nil {
		return NameToken{}, err
	}

	return NameToken{ElemName: elemName, Index: indices}, nil
}

func bracketsMustMatch(token string) error {
	open := 0

	for _, c := range token {
		switch c {
		case '[':
			open++
			if open > 1 {
				return errors.New("brackets must not nest")
			}
		case ']':
			open--
			if open < 0 {
				return errors.New("brackets must match")
			}
		}
	}

	if open != 0 {
		return errors.New("brackets must match")
	}

	return nil
}

// elemNameMustBeValid accepts names that start with a letter and continue
// with letters, digits or underscores.
func elemNameMustBeValid(elem string) error {
	if elem == "" {
		return errors.New("element must not be empty")
	}

	for i, c := range elem {
		switch {
		case unicode.IsLetter(c):
		case i > 0 && (unicode.IsDigit(c) || c == '_'):
		case i == 0:
			return errors.New("element must start with a letter")
		default:
			return fmt.Errorf("element must not contain %q", c)
		}
	}

	return nil
}

// Validate returns an error if the name does not follow the naming
// convention.
func Validate(name string) error {
	_, err := ParseName(name)
	return err
}

// NameMustBeValid panics if the name does not follow the naming convention.
// A name must
//  1. be a dot separated list of elements, such as "A.B.C";
//  2. not have empty elements, so "A..B" and "A.B." are invalid;
//  3. have elements that start with a letter and hold only letters, digits
//     and underscores;
//  4. index elements in a series with square brackets, such as "Server[2]".
func NameMustBeValid(name string) {
	if err := Validate(name); err != nil {
		panic(err)
	}
}

// BuildName builds a name from a parent name and an element name.
func BuildName(parentName, elementName string) string {
	if parentName == "" {
		return elementName
	}

	return parentName + Separator + elementName
}

// BuildNameWithIndex builds a name from a parent name, an element name and an
// index.
func BuildNameWithIndex(parentName, elementName string, index int) string {
	return BuildName(parentName, elementName+"["+strconv.Itoa(index)+"]")
}

// BuildNameWithMultiDimensionalIndex builds a name from a parent name, an
// element name and a multi-dimensional index.
func BuildNameWithMultiDimensionalIndex(
	parentName, elementName string,
	index []int,
) string {
	name := BuildName(parentName, elementName)

	for _, i := range index {
		name += "[" + strconv.Itoa(i) + "]"
	}

	return name
}
