package ui

import (
	"fmt"
	"io/ioutil"

	"github.com/juju/errors"
	"github.com/temoto/enderpanel/helpers"
	"gopkg.in/yaml.v2"
)

type Option struct {
	Name string `yaml:"name"`
	Cmd  string `yaml:"cmd"`
}

type Item struct {
	Name    string
	Options []Option
}

// Tree is top level menu in file order. Order is display and navigation order.
type Tree []Item

func (self *Item) String() string {
	return fmt.Sprintf("menu item=%q options=%d", self.Name, len(self.Options))
}

// Lookup returns first item with name. Items with duplicate names are reachable by index only.
func (self Tree) Lookup(name string) (Item, bool) {
	for _, item := range self {
		if item.Name == name {
			return item, true
		}
	}
	return Item{}, false
}

// Duplicates returns top level names seen more than once.
func (self Tree) Duplicates() []string {
	seen := make(map[string]int, len(self))
	dups := make([]string, 0)
	for _, item := range self {
		seen[item.Name]++
		if seen[item.Name] == 2 {
			dups = append(dups, item.Name)
		}
	}
	return dups
}

func (self Tree) Validate() error {
	if len(self) == 0 {
		return errors.NotValidf("menu is empty")
	}
	errs := make([]error, 0)
	for _, item := range self {
		if len(item.Options) == 0 {
			errs = append(errs, errors.NotValidf("menu item=%q no options", item.Name))
		}
		for j, opt := range item.Options {
			if opt.Name == "" {
				errs = append(errs, errors.NotValidf("menu item=%q option #%d name empty", item.Name, j+1))
			}
			if opt.Cmd == "" {
				errs = append(errs, errors.NotValidf("menu item=%q option=%q (#%d) cmd empty", item.Name, opt.Name, j+1))
			}
		}
	}
	return helpers.FoldErrors(errs)
}

// UnmarshalYAML keeps mapping order and duplicate keys.
func (self *Tree) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var ms yaml.MapSlice
	if err := unmarshal(&ms); err != nil {
		return err
	}
	tree := make(Tree, 0, len(ms))
	for _, mi := range ms {
		name := fmt.Sprint(mi.Key)
		// value is generic []interface{} here, round trip into typed options
		b, err := yaml.Marshal(mi.Value)
		if err != nil {
			return errors.Annotatef(err, "menu item=%q", name)
		}
		var opts []Option
		if err := yaml.UnmarshalStrict(b, &opts); err != nil {
			return errors.Annotatef(err, "menu item=%q", name)
		}
		tree = append(tree, Item{Name: name, Options: opts})
	}
	*self = tree
	return nil
}

func ParseMenu(b []byte) (Tree, error) {
	var tree Tree
	if err := yaml.Unmarshal(b, &tree); err != nil {
		return nil, errors.Annotate(err, "menu parse")
	}
	if err := tree.Validate(); err != nil {
		return nil, err
	}
	return tree, nil
}

func ReadMenuFile(path string) (Tree, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Annotate(err, "menu read")
	}
	tree, err := ParseMenu(b)
	return tree, errors.Annotatef(err, "menu file=%s", path)
}
