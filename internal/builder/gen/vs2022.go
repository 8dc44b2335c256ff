package gen

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/qobs-build/exgen/internal/examples"
)

//
// structures for .vcxproj
//

type VSProject struct {
	XMLName              xml.Name                `xml:"Project"`
	DefaultTargets       string                  `xml:"DefaultTargets,attr"`
	ToolsVersion         string                  `xml:"ToolsVersion,attr"`
	XMLNS                string                  `xml:"xmlns,attr"`
	PropertyGroups       []VSPropertyGroup       `xml:"PropertyGroup"`
	ItemGroups           []VSItemGroup           `xml:"ItemGroup"`
	ItemDefinitionGroups []VSItemDefinitionGroup `xml:"ItemDefinitionGroup"`
	Imports              []VSImport              `xml:"Import"`
}

type VSItemGroup struct {
	Label                 string                   `xml:"Label,attr,omitempty"`
	ProjectConfigurations []VSProjectConfiguration `xml:"ProjectConfiguration,omitempty"`
	ClCompiles            []VSClCompile            `xml:"ClCompile,omitempty"`
	ProjectReferences     []VSProjectReference     `xml:"ProjectReference,omitempty"`
}

type VSProjectConfiguration struct {
	Include       string `xml:"Include,attr"`
	Configuration string `xml:"Configuration"`
	Platform      string `xml:"Platform"`
}

type VSClCompile struct {
	Include string `xml:"Include,attr"`
}

type VSProjectReference struct {
	Include                 string `xml:"Include,attr"`
	Project                 string `xml:"Project"`
	Name                    string `xml:"Name"`
	LinkLibraryDependencies bool   `xml:"LinkLibraryDependencies"`
}

type VSPropertyGroup struct {
	Label                        string `xml:"Label,attr,omitempty"`
	Condition                    string `xml:"Condition,attr,omitempty"`
	ProjectGuid                  string `xml:"ProjectGuid,omitempty"`
	Keyword                      string `xml:"Keyword,omitempty"`
	WindowsTargetPlatformVersion string `xml:"WindowsTargetPlatformVersion,omitempty"`
	ProjectName                  string `xml:"ProjectName,omitempty"`
	ConfigurationType            string `xml:"ConfigurationType,omitempty"`
	PlatformToolset              string `xml:"PlatformToolset,omitempty"`
	CharacterSet                 string `xml:"CharacterSet,omitempty"`
	TargetName                   string `xml:"TargetName,omitempty"`
	UseDebugLibraries            *bool  `xml:"UseDebugLibraries,omitempty"`
}

type VSImport struct {
	Project string `xml:"Project,attr"`
}

type VSItemDefinitionGroup struct {
	Condition string          `xml:"Condition,attr"`
	ClCompile VSCppCompileDef `xml:"ClCompile"`
	Link      VSLinkDef       `xml:"Link"`
}

type VSCppCompileDef struct {
	WarningLevel            string `xml:"WarningLevel"`
	PreprocessorDefinitions string `xml:"PreprocessorDefinitions"`
	AdditionalOptions       string `xml:"AdditionalOptions,omitempty"`
	Optimization            string `xml:"Optimization,omitempty"`
	RuntimeLibrary          string `xml:"RuntimeLibrary,omitempty"`
}

type VSLinkDef struct {
	SubSystem                    string `xml:"SubSystem"`
	AdditionalDependencies       string `xml:"AdditionalDependencies"`
	AdditionalLibraryDirectories string `xml:"AdditionalLibraryDirectories,omitempty"`
	AdditionalOptions            string `xml:"AdditionalOptions,omitempty"`
}

type VSFiltersProject struct {
	XMLName      xml.Name             `xml:"Project"`
	ToolsVersion string               `xml:"ToolsVersion,attr"`
	XMLNS        string               `xml:"xmlns,attr"`
	ItemGroups   []VSFiltersItemGroup `xml:"ItemGroup"`
}

type VSFiltersItemGroup struct {
	ClCompiles []VSFiltersClCompile `xml:"ClCompile,omitempty"`
	Filters    []VSFiltersFilter    `xml:"Filter,omitempty"`
}

type VSFiltersClCompile struct {
	Include string `xml:"Include,attr"`
	Filter  string `xml:"Filter"`
}

type VSFiltersFilter struct {
	Include          string `xml:"Include,attr"`
	UniqueIdentifier string `xml:"UniqueIdentifier"`
	Extensions       string `xml:"Extensions"`
}

const msbuildXMLNS = "http://schemas.microsoft.com/developer/msbuild/2003"

var (
	errNoMsbuild = errors.New("msbuild not found in PATH or in any Visual Studio installation, run from a Developer Command Prompt")

	// namespace for project GUIDs, so the same target name always gets the same GUID
	guidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/qobs-build/exgen"))
)

//
// generator
//

type VS2022Gen struct {
	common
}

func (g *VS2022Gen) BuildFile() string { return "examples.sln" }

func projectGuid(name string) string {
	return strings.ToUpper(uuid.NewSHA1(guidNamespace, []byte(name)).String())
}

func projectFile(name string) string { return name + `\` + name + ".vcxproj" }

// AuxFiles returns the .vcxproj and .vcxproj.filters of every target plus the umbrella project
func (g *VS2022Gen) AuxFiles() map[string]string {
	files := make(map[string]string)
	for _, target := range g.targets {
		files[filepath.Join(target.Name, target.Name+".vcxproj")] = g.generateProjectFile(target)
		files[filepath.Join(target.Name, target.Name+".vcxproj.filters")] = g.generateFiltersFile(target)
	}
	if g.umbrella != nil {
		files[filepath.Join(g.umbrella.Name, g.umbrella.Name+".vcxproj")] = g.generateUmbrellaFile(*g.umbrella)
	}
	return files
}

func (g *VS2022Gen) Generate() string {
	var sb strings.Builder

	type project struct {
		name     string
		excluded bool
	}
	projects := make([]project, 0, len(g.targets)+1)
	for _, target := range g.targets {
		projects = append(projects, project{target.Name, target.ExcludeFromAll})
	}
	if g.umbrella != nil {
		projects = append(projects, project{g.umbrella.Name, true})
	}

	writeln(&sb, "Microsoft Visual Studio Solution File, Format Version 12.00")
	writeln(&sb, "# Visual Studio Version 17")
	for _, p := range projects {
		// Windows (Visual C++) https://github.com/VISTALL/visual-studio-project-type-guids
		writeln(&sb,
			`Project("{8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942}") = "`, p.name, `", "`, projectFile(p.name), `", "{`, projectGuid(p.name), `}"`,
		)
		writeln(&sb, "EndProject")
	}
	writeln(&sb, "Global")
	writeln(&sb, "\tGlobalSection(SolutionConfigurationPlatforms) = preSolution")
	writeln(&sb, "\t\tDebug|x64 = Debug|x64")
	writeln(&sb, "\t\tRelease|x64 = Release|x64")
	writeln(&sb, "\tEndGlobalSection")
	writeln(&sb, "\tGlobalSection(ProjectConfigurationPlatforms) = postSolution")
	for _, p := range projects {
		guid := projectGuid(p.name)
		writeln(&sb, "\t\t{", guid, "}.Debug|x64.ActiveCfg = Debug|x64")
		// a missing Build.0 line is how a solution excludes a project from "Build Solution"
		if !p.excluded {
			writeln(&sb, "\t\t{", guid, "}.Debug|x64.Build.0 = Debug|x64")
		}
		writeln(&sb, "\t\t{", guid, "}.Release|x64.ActiveCfg = Release|x64")
		if !p.excluded {
			writeln(&sb, "\t\t{", guid, "}.Release|x64.Build.0 = Release|x64")
		}
	}
	writeln(&sb, "\tEndGlobalSection")
	writeln(&sb, "\tGlobalSection(SolutionProperties) = preSolution")
	writeln(&sb, "\t\tHideSolutionNode = FALSE")
	writeln(&sb, "\tEndGlobalSection")
	writeln(&sb, "\tGlobalSection(ExtensibilityGlobals) = postSolution")
	writeln(&sb, "\t\tSolutionGuid = {", projectGuid(g.BuildFile()), "}")
	writeln(&sb, "\tEndGlobalSection")
	writeln(&sb, "EndGlobal")

	return sb.String()
}

func projectConfigurations() VSItemGroup {
	return VSItemGroup{
		Label: "ProjectConfigurations",
		ProjectConfigurations: []VSProjectConfiguration{
			{Include: "Debug|x64", Configuration: "Debug", Platform: "x64"},
			{Include: "Release|x64", Configuration: "Release", Platform: "x64"},
		},
	}
}

func globalPropertyGroup(name string) VSPropertyGroup {
	return VSPropertyGroup{
		Label:                        "Globals",
		ProjectGuid:                  "{" + projectGuid(name) + "}",
		Keyword:                      "Win32Proj",
		WindowsTargetPlatformVersion: "10.0",
		ProjectName:                  name,
	}
}

func configurationPropertyGroups(name, configurationType string) []VSPropertyGroup {
	trueVal, falseVal := true, false
	return []VSPropertyGroup{
		{
			Condition:         "'$(Configuration)|$(Platform)'=='Debug|x64'",
			Label:             "Configuration",
			ConfigurationType: configurationType,
			PlatformToolset:   "v143",
			CharacterSet:      "Unicode",
			TargetName:        name,
			UseDebugLibraries: &trueVal,
		},
		{
			Condition:         "'$(Configuration)|$(Platform)'=='Release|x64'",
			Label:             "Configuration",
			ConfigurationType: configurationType,
			PlatformToolset:   "v143",
			CharacterSet:      "Unicode",
			TargetName:        name,
			UseDebugLibraries: &falseVal,
		},
	}
}

func standardImports() (before, after []VSImport) {
	before = []VSImport{
		{Project: `$(VCTargetsPath)\Microsoft.Cpp.Default.props`},
		{Project: `$(VCTargetsPath)\Microsoft.Cpp.props`},
	}
	after = []VSImport{{Project: `$(VCTargetsPath)\Microsoft.Cpp.targets`}}
	return
}

func marshalProject(v any) string {
	output, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		panic(err) // static structure, can't fail
	}
	return xml.Header + string(output) + "\n"
}

func (g *VS2022Gen) generateProjectFile(target examples.Target) string {
	propertyGroups := []VSPropertyGroup{globalPropertyGroup(target.Name)}
	propertyGroups = append(propertyGroups, configurationPropertyGroups(target.Name, "Application")...)

	before, after := standardImports()
	project := VSProject{
		DefaultTargets: "Build",
		ToolsVersion:   "17.0",
		XMLNS:          msbuildXMLNS,
		PropertyGroups: propertyGroups,
		ItemGroups: []VSItemGroup{
			projectConfigurations(),
			{ClCompiles: []VSClCompile{{Include: target.Source}}},
		},
		ItemDefinitionGroups: g.createItemDefinitionGroups(target),
		Imports:              append(before, after...),
	}
	return marshalProject(project)
}

func (g *VS2022Gen) generateUmbrellaFile(u examples.UmbrellaTarget) string {
	refs := make([]VSProjectReference, 0, len(u.Deps))
	for _, dep := range u.Deps {
		refs = append(refs, VSProjectReference{
			Include: `..\` + projectFile(dep),
			Project: "{" + projectGuid(dep) + "}",
			Name:    dep,
		})
	}

	propertyGroups := []VSPropertyGroup{globalPropertyGroup(u.Name)}
	propertyGroups = append(propertyGroups, configurationPropertyGroups(u.Name, "Utility")...)

	itemGroups := []VSItemGroup{projectConfigurations()}
	if len(refs) > 0 {
		itemGroups = append(itemGroups, VSItemGroup{ProjectReferences: refs})
	}

	before, after := standardImports()
	return marshalProject(VSProject{
		DefaultTargets: "Build",
		ToolsVersion:   "17.0",
		XMLNS:          msbuildXMLNS,
		PropertyGroups: propertyGroups,
		ItemGroups:     itemGroups,
		Imports:        append(before, after...),
	})
}

func (g *VS2022Gen) createItemDefinitionGroups(target examples.Target) []VSItemDefinitionGroup {
	link := VSLinkDef{
		SubSystem:              "Console",
		AdditionalDependencies: parseLibraries(target.LinkDeps),
		AdditionalOptions:      strings.Join(g.ldflags, " "),
	}
	if g.libPath != "" {
		link.AdditionalLibraryDirectories = g.libPath + ";%(AdditionalLibraryDirectories)"
	}

	return []VSItemDefinitionGroup{
		{
			Condition: "'$(Configuration)|$(Platform)'=='Debug|x64'",
			ClCompile: VSCppCompileDef{
				WarningLevel:            "Level3",
				PreprocessorDefinitions: parseDefines(g.cflags, true),
				AdditionalOptions:       strings.Join(nonDefines(g.cflags), " "),
				Optimization:            "Disabled",
				RuntimeLibrary:          "MultiThreadedDebugDLL",
			},
			Link: link,
		},
		{
			Condition: "'$(Configuration)|$(Platform)'=='Release|x64'",
			ClCompile: VSCppCompileDef{
				WarningLevel:            "Level3",
				PreprocessorDefinitions: parseDefines(g.cflags, false),
				AdditionalOptions:       strings.Join(nonDefines(g.cflags), " "),
				Optimization:            "MaxSpeed",
				RuntimeLibrary:          "MultiThreadedDLL",
			},
			Link: link,
		},
	}
}

func (g *VS2022Gen) generateFiltersFile(target examples.Target) string {
	filters := VSFiltersProject{
		ToolsVersion: "17.0",
		XMLNS:        msbuildXMLNS,
		ItemGroups: []VSFiltersItemGroup{
			{ClCompiles: []VSFiltersClCompile{{Include: target.Source, Filter: "Source Files"}}},
			{Filters: []VSFiltersFilter{{
				Include:          "Source Files",
				UniqueIdentifier: "{" + projectGuid(target.Name+"/Source Files") + "}",
				Extensions:       "cpp;c;cc;cxx;c++;def;odl;idl;hpj;bat;asm;asmx",
			}}},
		},
	}
	return marshalProject(filters)
}

func (g *VS2022Gen) Invoke(buildDir string, targets ...string) error {
	msbuild, err := findMsbuild()
	if err != nil {
		return err
	}

	args := []string{g.BuildFile()}
	if len(targets) > 0 {
		args = append(args, solutionTargets(targets))
	}
	cmd := exec.Command(msbuild, args...)
	cmd.Dir = buildDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

// msbuild names solution targets after projects with these characters replaced by '_'
var solutionTargetEscaper = strings.NewReplacer(
	"%", "_", "$", "_", "@", "_", ";", "_", ".", "_", "(", "_", ")", "_", "'", "_",
)

// solutionTargets builds the /t: switch for building projects through the solution
func solutionTargets(targets []string) string {
	escaped := make([]string, len(targets))
	for i, t := range targets {
		escaped[i] = solutionTargetEscaper.Replace(t)
	}
	return fmt.Sprintf("/t:%s", strings.Join(escaped, ";"))
}

func parseDefines(cflags []string, isDebug bool) string {
	defines := []string{"WIN32", "_CONSOLE"}
	if isDebug {
		defines = append(defines, "_DEBUG")
	} else {
		defines = append(defines, "NDEBUG")
	}
	for _, flag := range cflags {
		if after, ok := strings.CutPrefix(flag, "-D"); ok {
			defines = append(defines, after)
		}
	}
	return strings.Join(defines, ";") + ";%(PreprocessorDefinitions)"
}

func nonDefines(cflags []string) []string {
	var out []string
	for _, flag := range cflags {
		if !strings.HasPrefix(flag, "-D") {
			out = append(out, flag)
		}
	}
	return out
}

func parseLibraries(deps []string) string {
	libs := []string{"kernel32.lib", "user32.lib"}
	for _, dep := range deps {
		if isLibraryFile(dep) {
			libs = append(libs, dep)
		} else {
			libs = append(libs, dep+".lib")
		}
	}
	return strings.Join(libs, ";") + ";%(AdditionalDependencies)"
}
