// Copyright 2026 Presto on YARN contributors
// SPDX-License-Identifier: Apache-2.0

package materialize

import (
	"errors"
	"os"

	"github.com/go-logr/logr"
	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/prestodb/presto-yarn-agent/pkg/params"
	"github.com/prestodb/presto-yarn-agent/pkg/render"
)

// recordingOwnership records chown calls instead of touching a user database.
type recordingOwnership struct {
	calls map[string]string
}

func (r *recordingOwnership) Chown(path, owner, group string) error {
	if r.calls == nil {
		r.calls = map[string]string{}
	}
	r.calls[path] = owner + ":" + group
	return nil
}

func baseParams() *params.ParameterSet {
	return &params.ParameterSet{
		Directories: params.Directories{
			Conf:         "/etc/presto/conf",
			Catalog:      "/etc/presto/conf/catalog",
			Pid:          "/var/run/presto",
			Log:          "/var/log/presto",
			PluginSource: "/var/lib/presto/plugins",
			PluginTarget: "/usr/lib/presto/plugin",
		},
		Identity: params.Identity{User: "presto", Group: "hadoop"},
		Node: params.NodeProperties{
			Environment: "presto",
			ID:          "node-1",
			DataDir:     "/var/lib/presto/data",
		},
		Site: params.SiteProperties{
			CoordinatorHost:       "master-1",
			HTTPPort:              8285,
			QueryMaxMemory:        "50GB",
			QueryMaxMemoryPerNode: "1GB",
		},
	}
}

var _ = Describe("Materializer", func() {
	var (
		fsys  vfs.FileSystem
		owner *recordingOwnership
		p     *params.ParameterSet
	)

	BeforeEach(func() {
		fsys = memoryfs.New()
		owner = &recordingOwnership{}
		p = baseParams()
	})

	apply := func(component string) error {
		return New(fsys, render.NewRenderer(), owner, p, logr.Discard()).Apply(component)
	}

	readFile := func(path string) string {
		data, err := vfs.ReadFile(fsys, path)
		Expect(err).NotTo(HaveOccurred())
		return string(data)
	}

	Describe("directory layout", func() {
		It("creates the four directories with the configured ownership", func() {
			Expect(apply(ComponentCoordinator)).To(Succeed())

			for _, dir := range []string{"/etc/presto/conf", "/etc/presto/conf/catalog", "/var/run/presto", "/var/log/presto"} {
				ok, err := vfs.DirExists(fsys, dir)
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeTrue(), dir)
				Expect(owner.calls).To(HaveKeyWithValue(dir, "presto:hadoop"))
			}
		})

		It("leaves existing directories in place", func() {
			Expect(fsys.MkdirAll("/etc/presto/conf", 0o755)).To(Succeed())
			Expect(vfs.WriteFile(fsys, "/etc/presto/conf/keep.txt", []byte("keep"), 0o644)).To(Succeed())

			Expect(apply(ComponentWorker)).To(Succeed())
			Expect(readFile("/etc/presto/conf/keep.txt")).To(Equal("keep"))
		})
	})

	Describe("rendered configuration", func() {
		It("renders the coordinator variant of config.properties", func() {
			Expect(apply(ComponentCoordinator)).To(Succeed())

			text := readFile("/etc/presto/conf/config.properties")
			Expect(text).To(ContainSubstring("coordinator=true\n"))
			Expect(text).To(ContainSubstring("discovery.uri=http://master-1:8285\n"))
			Expect(owner.calls).To(HaveKeyWithValue("/etc/presto/conf/config.properties", "presto:hadoop"))
		})

		It("renders the worker variant of config.properties", func() {
			Expect(apply(ComponentWorker)).To(Succeed())

			Expect(readFile("/etc/presto/conf/config.properties")).To(ContainSubstring("coordinator=false\n"))
		})

		It("renders node.properties from the default template", func() {
			Expect(apply(ComponentCoordinator)).To(Succeed())

			Expect(readFile("/etc/presto/conf/node.properties")).To(Equal(
				"node.environment=presto\nnode.id=node-1\nnode.data-dir=/var/lib/presto/data\n"))
		})

		It("overwrites previously rendered files", func() {
			Expect(apply(ComponentCoordinator)).To(Succeed())
			Expect(apply(ComponentWorker)).To(Succeed())

			Expect(readFile("/etc/presto/conf/config.properties")).To(ContainSubstring("coordinator=false\n"))
		})

		It("rejects an unknown component role before touching the filesystem", func() {
			Expect(apply("OBSERVER")).NotTo(Succeed())

			ok, err := vfs.DirExists(fsys, "/etc/presto/conf")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("jvm.config", func() {
		It("appends each argument as its own line, in order", func() {
			p.JVMArgs = `['-Xmx512m', '-Xms256m']`

			Expect(apply(ComponentCoordinator)).To(Succeed())
			Expect(readFile("/etc/presto/conf/jvm.config")).To(Equal("-Xmx512m\n-Xms256m\n"))
		})

		It("appends after pre-existing content", func() {
			Expect(fsys.MkdirAll("/etc/presto/conf", 0o755)).To(Succeed())
			Expect(vfs.WriteFile(fsys, "/etc/presto/conf/jvm.config", []byte("-server\n"), 0o644)).To(Succeed())
			p.JVMArgs = `['-Xmx512m', '-Xms256m']`

			Expect(apply(ComponentCoordinator)).To(Succeed())
			Expect(readFile("/etc/presto/conf/jvm.config")).To(Equal("-server\n-Xmx512m\n-Xms256m\n"))
		})

		It("accumulates lines over repeated invocations", func() {
			p.JVMArgs = `['-Xmx512m']`

			Expect(apply(ComponentCoordinator)).To(Succeed())
			Expect(apply(ComponentCoordinator)).To(Succeed())
			Expect(readFile("/etc/presto/conf/jvm.config")).To(Equal("-Xmx512m\n-Xmx512m\n"))
		})

		It("is not written when no args are configured", func() {
			Expect(apply(ComponentCoordinator)).To(Succeed())

			ok, err := vfs.FileExists(fsys, "/etc/presto/conf/jvm.config")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("catalog properties", func() {
		It("writes one file per catalog under the catalog directory", func() {
			p.CatalogProperties = `{'hive': ['connector.name=hive', 'hive.metastore.uri=thrift://master-1:9083'], 'tpch': ['connector.name=tpch']}`

			Expect(apply(ComponentCoordinator)).To(Succeed())

			Expect(readFile("/etc/presto/conf/catalog/hive.properties")).To(Equal(
				"connector.name=hive\nhive.metastore.uri=thrift://master-1:9083\n"))
			Expect(readFile("/etc/presto/conf/catalog/tpch.properties")).To(Equal("connector.name=tpch\n"))
		})

		It("duplicates lines when invoked twice", func() {
			p.CatalogProperties = `{'hive': ['connector.name=hive']}`

			Expect(apply(ComponentCoordinator)).To(Succeed())
			Expect(apply(ComponentCoordinator)).To(Succeed())

			Expect(readFile("/etc/presto/conf/catalog/hive.properties")).To(Equal(
				"connector.name=hive\nconnector.name=hive\n"))
		})

		It("touches nothing under the catalog directory when absent", func() {
			Expect(apply(ComponentCoordinator)).To(Succeed())

			entries, err := vfs.ReadDir(fsys, "/etc/presto/conf/catalog")
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})
	})

	Describe("failure ordering", func() {
		It("aborts on a malformed jvm literal before writing catalog files", func() {
			p.JVMArgs = `['-Xmx512m'`
			p.CatalogProperties = `{'hive': ['connector.name=hive']}`

			err := apply(ComponentCoordinator)
			Expect(err).To(HaveOccurred())

			var malformed *params.MalformedLiteralError
			Expect(errors.As(err, &malformed)).To(BeTrue())
			Expect(malformed.Field).To(Equal("jvmArgs"))

			// Earlier steps already ran, later ones must not have.
			ok, statErr := vfs.FileExists(fsys, "/etc/presto/conf/config.properties")
			Expect(statErr).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			ok, statErr = vfs.FileExists(fsys, "/etc/presto/conf/catalog/hive.properties")
			Expect(statErr).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("aborts on a malformed catalog literal before staging plugins", func() {
			p.CatalogProperties = `{'hive'`
			p.AddonPlugins = `{'myplugin': ['a.jar']}`

			Expect(apply(ComponentCoordinator)).NotTo(Succeed())

			ok, err := vfs.DirExists(fsys, "/usr/lib/presto/plugin/myplugin")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("plugin staging", func() {
		stageSource := func(name, content string, mode os.FileMode) {
			Expect(fsys.MkdirAll("/var/lib/presto/plugins", 0o755)).To(Succeed())
			Expect(vfs.WriteFile(fsys, "/var/lib/presto/plugins/"+name, []byte(content), mode)).To(Succeed())
		}

		BeforeEach(func() {
			Expect(fsys.MkdirAll("/usr/lib/presto/plugin", 0o755)).To(Succeed())
		})

		It("copies artifacts into a per-plugin directory", func() {
			stageSource("a.jar", "jar-a", 0o644)
			stageSource("b.jar", "jar-b", 0o644)
			p.AddonPlugins = `{'myplugin': ['a.jar', 'b.jar']}`

			Expect(apply(ComponentCoordinator)).To(Succeed())

			Expect(readFile("/usr/lib/presto/plugin/myplugin/a.jar")).To(Equal("jar-a"))
			Expect(readFile("/usr/lib/presto/plugin/myplugin/b.jar")).To(Equal("jar-b"))
		})

		It("preserves the artifact mode", func() {
			stageSource("a.jar", "jar-a", 0o640)
			p.AddonPlugins = `{'myplugin': ['a.jar']}`

			Expect(apply(ComponentCoordinator)).To(Succeed())

			info, err := fsys.Stat("/usr/lib/presto/plugin/myplugin/a.jar")
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o640)))
		})

		It("overwrites a same-named artifact in an existing plugin directory", func() {
			Expect(fsys.MkdirAll("/usr/lib/presto/plugin/myplugin", 0o755)).To(Succeed())
			Expect(vfs.WriteFile(fsys, "/usr/lib/presto/plugin/myplugin/a.jar", []byte("stale"), 0o644)).To(Succeed())
			stageSource("a.jar", "fresh", 0o644)
			p.AddonPlugins = `{'myplugin': ['a.jar']}`

			Expect(apply(ComponentCoordinator)).To(Succeed())
			Expect(readFile("/usr/lib/presto/plugin/myplugin/a.jar")).To(Equal("fresh"))
		})

		It("fails when a named artifact is missing", func() {
			p.AddonPlugins = `{'myplugin': ['nope.jar']}`

			Expect(apply(ComponentCoordinator)).NotTo(Succeed())
		})
	})
})
